package decode

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/coldecode/errs"
)

// Spec is a parsed transform specification.
//
// With IDs set, columns are referenced by 1-based position, otherwise by name:
//
//	{"ids": true, "recode": [1, 2], "dummycode": [2], "bin": [{"id": 3, "method": "equi-width", "numbins": 4}]}
//	{"recode": ["city"], "bin": [{"name": "age", "numbins": 3}]}
//
// Columns not named by any transform are decoded as pass-through. A dummy
// coded column is resolved through its bin boundaries when it is also binned
// and through its recode map otherwise.
type Spec struct {
	IDs       bool        `json:"ids" yaml:"ids"`
	Recode    []ColumnRef `json:"recode,omitempty" yaml:"recode,omitempty"`
	Dummycode []ColumnRef `json:"dummycode,omitempty" yaml:"dummycode,omitempty"`
	Bin       []BinSpec   `json:"bin,omitempty" yaml:"bin,omitempty"`
}

// ColumnRef references a column by 1-based ID or by name.
type ColumnRef struct {
	ID   int
	Name string
}

// UnmarshalJSON accepts a JSON number or string.
func (c *ColumnRef) UnmarshalJSON(data []byte) error {
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		*c = ColumnRef{ID: id}
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: column reference %s is neither an ID nor a name", errs.ErrConfiguration, data)
	}
	*c = ColumnRef{Name: name}

	return nil
}

// MarshalJSON writes the name when set, the ID otherwise.
func (c ColumnRef) MarshalJSON() ([]byte, error) {
	if c.Name != "" {
		return json.Marshal(c.Name)
	}

	return json.Marshal(c.ID)
}

// UnmarshalYAML accepts an integer or string scalar.
func (c *ColumnRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: column reference at line %d is not a scalar", errs.ErrConfiguration, node.Line)
	}

	if node.ShortTag() == "!!int" {
		var id int
		if err := node.Decode(&id); err != nil {
			return fmt.Errorf("%w: column reference at line %d: %w", errs.ErrConfiguration, node.Line, err)
		}
		*c = ColumnRef{ID: id}

		return nil
	}
	*c = ColumnRef{Name: node.Value}

	return nil
}

// String returns the name or the ID of the column.
func (c ColumnRef) String() string {
	if c.Name != "" {
		return c.Name
	}

	return fmt.Sprintf("#%d", c.ID)
}

// BinSpec configures the binning of one column.
//
// Method and NumBins describe the forward transform. Decoding takes the bin
// count from the metadata, so they are only validated.
type BinSpec struct {
	ID      int    `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Method  string `json:"method,omitempty" yaml:"method,omitempty"`
	NumBins int    `json:"numbins,omitempty" yaml:"numbins,omitempty"`
}

// Column returns the column referenced by the bin spec.
func (b BinSpec) Column() ColumnRef {
	return ColumnRef{ID: b.ID, Name: b.Name}
}

// Transform keys with a decoder in this package.
var decodedKeys = []string{"ids", "recode", "dummycode", "bin"}

// Transform keys of encoder-only transforms that leave nothing to decode.
var ignoredKeys = []string{"passthrough", "impute", "omit", "scale", "hash", "K", "udf"}

// ParseSpec parses a JSON transform specification.
//
// Unknown transform keys fail with ErrConfiguration. Encoder-only transforms
// such as "impute" or "omit" are ignored unless WithStrictSpec is given.
func ParseSpec(data []byte, opts ...FactoryOption) (*Spec, error) {
	cfg, err := newFactoryConfig(opts)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	if err := checkSpecKeys(keys, cfg); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if cfg.strict {
		dec.DisallowUnknownFields()
	}

	spec := &Spec{}
	if err := dec.Decode(spec); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	if err := spec.validate(); err != nil {
		return nil, err
	}

	return spec, nil
}

// ParseSpecYAML parses a YAML transform specification with the same keys as ParseSpec.
func ParseSpecYAML(data []byte, opts ...FactoryOption) (*Spec, error) {
	cfg, err := newFactoryConfig(opts)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	spec := &Spec{}
	if len(doc.Content) == 0 {
		return spec, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: transform spec at line %d is not a mapping", errs.ErrConfiguration, root.Line)
	}

	keys := make([]string, 0, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}
	if err := checkSpecKeys(keys, cfg); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(cfg.strict)
	if err := dec.Decode(spec); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	if err := spec.validate(); err != nil {
		return nil, err
	}

	return spec, nil
}

func checkSpecKeys(keys []string, cfg *factoryConfig) error {
	slices.Sort(keys)
	for _, k := range keys {
		switch {
		case slices.Contains(decodedKeys, k):
		case slices.Contains(ignoredKeys, k):
			if cfg.strict {
				return fmt.Errorf("%w: transform %q has no decoder", errs.ErrConfiguration, k)
			}
			cfg.logger.Debug("ignoring encoder-only transform", zap.String("transform", k))
		default:
			return fmt.Errorf("%w: unknown transform %q", errs.ErrConfiguration, k)
		}
	}

	return nil
}

// validate checks the bin methods and counts and that column references match IDs.
func (s *Spec) validate() error {
	check := func(kind string, ref ColumnRef) error {
		if s.IDs && ref.Name != "" {
			return fmt.Errorf("%w: %s column %q given by name with ids enabled", errs.ErrConfiguration, kind, ref.Name)
		}
		if !s.IDs && ref.Name == "" {
			return fmt.Errorf("%w: %s column %s given by ID with ids disabled", errs.ErrConfiguration, kind, ref)
		}

		return nil
	}

	for _, ref := range s.Recode {
		if err := check("recode", ref); err != nil {
			return err
		}
	}
	for _, ref := range s.Dummycode {
		if err := check("dummycode", ref); err != nil {
			return err
		}
	}
	for _, b := range s.Bin {
		if err := check("bin", b.Column()); err != nil {
			return err
		}

		switch strings.ToLower(b.Method) {
		case "", "equi-width", "equi-height":
		default:
			return fmt.Errorf("%w: bin column %s has unknown method %q", errs.ErrConfiguration, b.Column(), b.Method)
		}
		if b.NumBins < 0 {
			return fmt.Errorf("%w: bin column %s has %d bins", errs.ErrConfiguration, b.Column(), b.NumBins)
		}
	}

	return nil
}
