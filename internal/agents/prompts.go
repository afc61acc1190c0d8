package agents

const analystPrompt = `You are an Analyst. Your task is to analyze the following query using the provided document context:

Query: %s
Document Context: %s

Provide an informative response based on the query. If further clarification is needed, suggest a follow-up question. If no follow-up is needed, provide a conclusion.`

const leaderPrompt = `You are the Leader. Your task is to unify and summarize the responses from Analyst 1 and Analyst 2 into a coherent final response, given the query and the context:

Query: %s
Context: %s

Analyst 1 Response: %s
Analyst 2 Response: %s

Provide the unified response below.`

const unificationPrompt = `You are the Leader. Your task is to unify and summarize all analyst responses into a single, coherent, and comprehensive final response, given the query and the context:

Query: %s
Context: %s

Analyst 1_2 Combined Response: %s
%s
Provide the unified response below, ensuring clarity, accuracy, and coherence.`

// The evaluator answers "Yes" when another round is warranted.
const followUpPrompt = `Based on the provided query, context, and final response, determine whether the query still needs a follow-up because it has not been fully answered.

Query: %s
Context: %s
Final Response: %s

Output "Yes" if the query is not fully answered and needs a follow-up, otherwise output "No".`

const decomposeIntro = `The user has a %s. Your first task is to determine whether the query is a simple query or complex one i.e., determine whether there is a need of dividing the query into simple ones or not.
If the query is simple, then keep the subtask 1 as the initial query and subtask 2 as empty, else your next task is to divide this query into two distinct subtasks that can be worked on independently.
Subtask 1: Focuses on one fundamental aspect of the query.
Subtask 2: Focuses on a complementary or orthogonal aspect to Subtask 1, without overlapping in scope or objectives.
Ensure that the subtasks are distinct, independent, and non-redundant.
Instructions:
Analyze the provided %s.
Identify two subtasks that:
Together contribute to solving the overall query.
Individually focus on different aspects of the problem to avoid redundancy.
Ensure the subtasks are well-defined and actionable, with clear objectives.
Here is the %s:
Query: "%s"
`

const decomposeMarkerFormat = `
Provide the output in this format:

Subtask 1: [In case of simple query, keep the initial query here else in case of complex query keep the first independent subtask with clear and actionable instructions]
Subtask 2: [In case of simple query, keep this empty else in case of complex query keep the second distinct subtask that complements the first]`

const decomposeJSONFormat = `
Provide the output as a JSON object with the keys "subtask_1" and "subtask_2". In case of a simple query, "subtask_1" is the initial query and "subtask_2" is the empty string.`

const furtherIntro = `You are provided with a query, its context, and two previously defined subtasks (Subtask 1 and Subtask 2). Your task is to generate two new subtasks: Subtask 3 and Subtask 4, ensuring they are:

Distinct from both Subtask 1 and Subtask 2.
Independent of each other but contribute toward solving the original query.
Complementary to the overall solution while addressing unexplored aspects of the query.
Instructions:
Analyze the provided query and context carefully.
Avoid reusing or overlapping with the objectives of Subtask 1 and Subtask 2.
Identify two new subtasks (Subtask 3 and Subtask 4) that focus on unexplored dimensions, technical considerations, or potential enhancements.
Make each subtask clear, actionable, and non-redundant with previous subtasks.
Here is the query, context, and previous subtasks:
Query: "%s"
Context: "%s"
Subtask 1: %s
Subtask 2: %s
`

const furtherMarkerFormat = `
Provide the output in this format:

Subtask 3: [Third independent subtask, distinct from Subtask 1 and Subtask 2, focusing on a new actionable aspect of the query]
Subtask 4: [Fourth independent subtask, distinct from Subtask 1, Subtask 2, and Subtask 3, complementing the overall solution]`

const furtherJSONFormat = `
Provide the output as a JSON object with the keys "subtask_3" and "subtask_4".`
