package rules

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"dcmsort/pkg/errors"
	"dcmsort/pkg/logging"
)

// ruleSpec is the raw on-disk shape of one rule before compilation
type ruleSpec struct {
	Datatype       string                 `koanf:"datatype"`
	Suffix         string                 `koanf:"suffix"`
	CustomEntities string                 `koanf:"custom_entities"`
	Criteria       map[string]interface{} `koanf:"criteria"`
}

// Load reads and compiles a rule file. The parser is selected by file
// extension; JSON description lists are the documented default. Any
// malformed rule is a load-time error: matching never fails for a rule
// set this function returned.
func Load(path string) ([]Rule, error) {
	logger := logging.GetLogger("rules.config")

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse rule file %s", path)
	}

	ruleList, err := Parse(k)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", path).
		Int("ruleCount", len(ruleList)).
		Msg("Loaded rule file")
	return ruleList, nil
}

// Parse compiles rules from already-loaded configuration
func Parse(k *koanf.Koanf) ([]Rule, error) {
	var specs []ruleSpec
	if err := k.Unmarshal("descriptions", &specs); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to read descriptions list")
	}
	if len(specs) == 0 {
		return nil, errors.New(errors.ErrConfigValid, "rule file has no descriptions")
	}

	ruleList := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := compileRule(spec)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "rule %d (%s/%s) is invalid",
				i, spec.Datatype, spec.Suffix)
		}
		ruleList = append(ruleList, rule)
	}
	return ruleList, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return kjson.Parser(), nil
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".toml":
		return ktoml.Parser(), nil
	}
	return nil, errors.Newf(errors.ErrConfigLoad, "unsupported rule file extension: %s", path)
}

func compileRule(spec ruleSpec) (Rule, error) {
	if spec.Datatype == "" {
		return Rule{}, fmt.Errorf("datatype is required")
	}
	if spec.Suffix == "" {
		return Rule{}, fmt.Errorf("suffix is required")
	}

	criteria := make(Criterion, len(spec.Criteria))
	for field, raw := range spec.Criteria {
		pattern, err := compilePattern(raw)
		if err != nil {
			return Rule{}, fmt.Errorf("criteria %s: %w", field, err)
		}
		criteria[field] = pattern
	}

	return Rule{
		Datatype:       spec.Datatype,
		Suffix:         spec.Suffix,
		CustomEntities: spec.CustomEntities,
		Criteria:       criteria,
	}, nil
}

// compilePattern turns one raw criteria entry into a compiled Pattern:
//
//	string or number      -> wildcard match on the string form
//	list of strings       -> ordered-sequence equality
//	{"any": [p1, p2, ..]} -> OR over sub-patterns
//	{op: bound}           -> relational comparison, op in lt/le/gt/ge/eq
func compilePattern(raw interface{}) (Pattern, error) {
	switch v := raw.(type) {
	case string:
		return Wildcard(v), nil
	case int, int64, float64:
		return Wildcard(numberText(v)), nil
	case []interface{}:
		seq, err := stringSequence(v)
		if err != nil {
			return Pattern{}, err
		}
		return SequenceEq(seq...), nil
	case map[string]interface{}:
		return compileOperatorPattern(v)
	}
	return Pattern{}, fmt.Errorf("unsupported pattern type %T", raw)
}

func compileOperatorPattern(m map[string]interface{}) (Pattern, error) {
	if len(m) != 1 {
		return Pattern{}, fmt.Errorf("operator pattern must have exactly one key, got %d", len(m))
	}

	for op, operand := range m {
		if op == "any" {
			return compileAnyPattern(operand)
		}
		if !IsRelOp(op) {
			return Pattern{}, fmt.Errorf("unknown operator %q", op)
		}
		bound, ok := numericBound(operand)
		if !ok {
			return Pattern{}, fmt.Errorf("operator %q needs a numeric bound, got %v", op, operand)
		}
		return Relational(RelOp(op), bound), nil
	}
	return Pattern{}, fmt.Errorf("empty operator pattern")
}

func compileAnyPattern(operand interface{}) (Pattern, error) {
	list, ok := operand.([]interface{})
	if !ok || len(list) == 0 {
		return Pattern{}, fmt.Errorf("any needs a non-empty list, got %v", operand)
	}

	alts := make([]Pattern, 0, len(list))
	for _, elem := range list {
		switch e := elem.(type) {
		case string:
			alts = append(alts, Wildcard(e))
		case int, int64, float64:
			alts = append(alts, Wildcard(numberText(e)))
		case []interface{}:
			seq, err := stringSequence(e)
			if err != nil {
				return Pattern{}, fmt.Errorf("any: %w", err)
			}
			alts = append(alts, SequenceEq(seq...))
		default:
			return Pattern{}, fmt.Errorf("any: unsupported alternative type %T", elem)
		}
	}
	return AnyOf(alts...), nil
}

func stringSequence(list []interface{}) ([]string, error) {
	seq := make([]string, 0, len(list))
	for _, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("sequence pattern elements must be strings, got %T", elem)
		}
		seq = append(seq, s)
	}
	return seq, nil
}

func numberText(v interface{}) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// numericBound coerces a relational bound to a float. String bounds are
// accepted so JSON rule files may quote numbers.
func numericBound(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// DefaultRules returns the built-in rule set used when no rule file is
// given. It mirrors a common dcm2bids configuration for structural,
// functional, diffusion, and fieldmap series.
func DefaultRules() []Rule {
	return []Rule{
		{Datatype: "anat", Suffix: "T1w", Criteria: Criterion{
			"SeriesDescription": AnyOf(Wildcard("*mprage*"), Wildcard("*MPRAGE*"), Wildcard("*T1*TFE*"), Wildcard("*t1*")),
		}},
		{Datatype: "anat", Suffix: "FLAIR", Criteria: Criterion{
			"SeriesDescription": AnyOf(Wildcard("*FLAIR*"), Wildcard("*flair*")),
		}},
		{Datatype: "anat", Suffix: "T2w", Criteria: Criterion{
			"SeriesDescription": AnyOf(Wildcard("*T2*"), Wildcard("*t2*")),
		}},
		{Datatype: "dwi", Suffix: "dwi", Criteria: Criterion{
			"SeriesDescription": AnyOf(Wildcard("*dwi*"), Wildcard("*DWI*"), Wildcard("*dti*"), Wildcard("*DTI*")),
		}},
		{Datatype: "func", Suffix: "bold", Criteria: Criterion{
			"SeriesDescription": AnyOf(Wildcard("*bold*"), Wildcard("*BOLD*"), Wildcard("*fmri*"), Wildcard("*fMRI*")),
		}},
		{Datatype: "fmap", Suffix: "phasediff", Criteria: Criterion{
			"SeriesDescription": AnyOf(Wildcard("*fieldmap*"), Wildcard("*field_map*"), Wildcard("*B0map*")),
		}},
	}
}
