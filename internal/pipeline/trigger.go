package pipeline

import (
	"fmt"

	"github.com/dnswlt/yamlasset/internal/asset"
	"github.com/google/cel-go/cel"
	"k8s.io/apimachinery/pkg/labels"
)

// Trigger decides whether a stage runs for an asset.
type Trigger struct {
	// The condition under which this Trigger activates. nil means always.
	condition cel.Program
	// The condition that blocks this Trigger from being activated.
	inhibitCondition cel.Program
	// Labels the asset must match.
	selector labels.Selector
	// The stage that is executed if the trigger activates.
	stage Stage
}

// celEnv declares the variables available to trigger expressions.
var celEnv = mustEnv(
	cel.Variable("kind", cel.StringType),
	cel.Variable("name", cel.StringType),
	cel.Variable("namespace", cel.StringType),
	cel.Variable("labels", cel.MapType(cel.StringType, cel.StringType)),
	cel.Variable("annotations", cel.MapType(cel.StringType, cel.StringType)),
)

func mustEnv(opts ...cel.EnvOption) *cel.Env {
	env, err := cel.NewEnv(opts...)
	if err != nil {
		panic(fmt.Sprintf("pipeline: invalid CEL environment: %v", err))
	}
	return env
}

// compileCondition compiles a boolean CEL expression.
func compileCondition(expr string) (cel.Program, error) {
	ast, iss := celEnv.Compile(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q has type %s, want bool", expr, ast.OutputType())
	}
	return celEnv.Program(ast)
}

func newTrigger(def *Definition) (*Trigger, error) {
	t := &Trigger{}
	var err error
	if def.Trigger != "" {
		if t.condition, err = compileCondition(def.Trigger); err != nil {
			return nil, err
		}
	}
	if def.Inhibit != "" {
		if t.inhibitCondition, err = compileCondition(def.Inhibit); err != nil {
			return nil, fmt.Errorf("invalid inhibit expression: %v", err)
		}
	}
	if def.Selector != "" {
		if t.selector, err = labels.Parse(def.Selector); err != nil {
			return nil, fmt.Errorf("invalid selector %q: %v", def.Selector, err)
		}
	}
	return t, nil
}

func activation(a *asset.Asset) map[string]any {
	lbls := a.Metadata.Labels
	if lbls == nil {
		lbls = map[string]string{}
	}
	annots := a.Metadata.Annotations
	if annots == nil {
		annots = map[string]string{}
	}
	return map[string]any{
		"kind":        a.Kind,
		"name":        a.Metadata.Name,
		"namespace":   a.Metadata.Namespace,
		"labels":      lbls,
		"annotations": annots,
	}
}

func eval(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out.Value())
	}
	return b, nil
}

// Matches reports whether the stage should run for a.
func (t *Trigger) Matches(a *asset.Asset) (bool, error) {
	if t.selector != nil && !t.selector.Matches(labels.Set(a.Metadata.Labels)) {
		return false, nil
	}
	vars := activation(a)
	if t.condition != nil {
		ok, err := eval(t.condition, vars)
		if err != nil || !ok {
			return false, err
		}
	}
	if t.inhibitCondition != nil {
		inhibit, err := eval(t.inhibitCondition, vars)
		if err != nil {
			return false, err
		}
		if inhibit {
			return false, nil
		}
	}
	return true, nil
}
