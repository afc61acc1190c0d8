package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

const (
	marker1 = "Subtask 1:"
	marker2 = "Subtask 2:"
	marker3 = "Subtask 3:"
	marker4 = "Subtask 4:"
)

// Subtasks is one decomposition result. Second may be empty, meaning no split.
type Subtasks struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// Split reports whether the decomposition produced a second subtask.
func (s Subtasks) Split() bool { return s.Second != "" }

// Decomposer splits a question into at most two independent subtasks.
type Decomposer struct {
	LLM llm.Provider
	// Structured asks for JSON output when LLM implements llm.StructuredProvider.
	Structured bool
	Budget     *llm.Budget
}

// Decompose runs the first pass. A nil context selects the context-free prompt.
func (d *Decomposer) Decompose(ctx context.Context, question string, snippets []string) (Subtasks, error) {
	var prompt string
	if snippets == nil {
		prompt = fmt.Sprintf(decomposeIntro, "query", "query", "query", question)
	} else {
		prompt = fmt.Sprintf(decomposeIntro, "query and a context", "query and context", "query and context", question) +
			fmt.Sprintf("Context: \"%s\"\n", render(d.Budget, snippets))
	}
	return d.run(ctx, "decomposer.decompose", prompt, decomposeMarkerFormat, decomposeJSONFormat,
		[2]string{"subtask_1", "subtask_2"}, [2]string{marker1, marker2})
}

// DecomposeFurther produces two new subtasks that should not repeat prev.
func (d *Decomposer) DecomposeFurther(ctx context.Context, question string, prev Subtasks, snippets []string) (Subtasks, error) {
	prompt := fmt.Sprintf(furtherIntro, question, render(d.Budget, snippets), prev.First, prev.Second)
	return d.run(ctx, "decomposer.decompose_further", prompt, furtherMarkerFormat, furtherJSONFormat,
		[2]string{"subtask_3", "subtask_4"}, [2]string{marker3, marker4})
}

// run generates and parses one decomposition. Unparseable replies are kept out
// of any generation cache so a retry reaches the model.
func (d *Decomposer) run(ctx context.Context, op, prompt, markerFormat, jsonFormat string, keys, markers [2]string) (Subtasks, error) {
	sp, structured := d.LLM.(llm.StructuredProvider)
	structured = structured && d.Structured
	parse := func(out string) (Subtasks, error) {
		if structured {
			if st, ok := parseJSON(out, keys); ok {
				return clean(st)
			}
		}
		st, err := ParseMarkers(out, markers[0], markers[1])
		if err != nil {
			return Subtasks{}, err
		}
		return clean(st)
	}
	ctx = llm.WithAccept(ctx, func(out string) bool {
		_, err := parse(out)
		return err == nil
	})

	var (
		out string
		err error
	)
	if structured {
		out, err = sp.GenerateJSON(ctx, prompt+jsonFormat, "subtasks", subtaskSchema(keys))
	} else {
		out, err = d.LLM.GenerateCompletion(ctx, prompt+markerFormat)
	}
	if err != nil {
		return Subtasks{}, errs.Wrap(errs.ErrGenerationUnavailable, op, err)
	}
	st, err := parse(out)
	if err != nil && structured {
		logger.Warnf("decomposer: structured output unusable: %.120q", out)
	}
	return st, err
}

func subtaskSchema(keys [2]string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			keys[0]: map[string]any{"type": "string"},
			keys[1]: map[string]any{"type": "string"},
		},
		"required":             []string{keys[0], keys[1]},
		"additionalProperties": false,
	}
}

func parseJSON(out string, keys [2]string) (Subtasks, bool) {
	var m map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &m); err != nil {
		return Subtasks{}, false
	}
	first, ok := m[keys[0]]
	if !ok {
		return Subtasks{}, false
	}
	return Subtasks{First: first, Second: m[keys[1]]}, true
}

// ParseMarkers extracts the text after m1 up to m2 and the text after m2.
// A missing marker is an ErrDecompositionFormat.
func ParseMarkers(text, m1, m2 string) (Subtasks, error) {
	i := strings.Index(text, m1)
	if i < 0 {
		return Subtasks{}, errs.New(errs.ErrDecompositionFormat, "decomposer.parse", fmt.Sprintf("missing %q", m1))
	}
	rest := text[i+len(m1):]
	j := strings.Index(rest, m2)
	if j < 0 {
		return Subtasks{}, errs.New(errs.ErrDecompositionFormat, "decomposer.parse", fmt.Sprintf("missing %q", m2))
	}
	return Subtasks{First: rest[:j], Second: rest[j+len(m2):]}, nil
}

// clean normalizes both subtasks, rejects an empty first one and drops a
// second one that repeats the first.
func clean(st Subtasks) (Subtasks, error) {
	st.First = cleanSubtask(st.First)
	st.Second = cleanSubtask(st.Second)
	if st.First == "" {
		return Subtasks{}, errs.New(errs.ErrDecompositionFormat, "decomposer.parse", "empty first subtask")
	}
	if overlaps(st.First, st.Second) {
		logger.Debugf("decomposer: dropping second subtask repeating the first: %q", st.Second)
		st.Second = ""
	}
	return st, nil
}

var emptyPlaceholders = map[string]bool{
	"":        true,
	"empty":   true,
	"(empty)": true,
	"none":    true,
	"n/a":     true,
	"-":       true,
}

func cleanSubtask(s string) string {
	s = strings.TrimSpace(s)
	// markdown emphasis around the marker leaves stray asterisks behind
	s = strings.Trim(s, "*_ \t\r\n")
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '[' && last == ']') || (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	if emptyPlaceholders[strings.ToLower(s)] {
		return ""
	}
	return s
}

func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la := strings.ToLower(strings.TrimRight(a, ".?! "))
	lb := strings.ToLower(strings.TrimRight(b, ".?! "))
	return la == lb || strings.Contains(la, lb) || strings.Contains(lb, la)
}

// render joins a context bundle for a prompt, trimmed to budget.
func render(b *llm.Budget, bundle []string) string {
	return strings.Join(b.Fit(bundle), "\n\n")
}
