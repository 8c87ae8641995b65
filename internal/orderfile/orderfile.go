// Package orderfile reads orders from YAML files for non-interactive use.
//
// Keys are the wire field names used by the document service:
//
//	receiverName: Acme Traders
//	poNumber: PO-17
//	cgstRate: 9
//	items:
//	  - particulars: Widget
//	    rate: 10.50
//	    quantity: 3
//
// Scalar values are taken verbatim, so "10.50" keeps its trailing zero.
package orderfile

import (
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/xenking/pi-generator/internal/domain/order"
)

type document struct {
	Items  []map[string]yaml.Node `yaml:"items"`
	Fields map[string]yaml.Node   `yaml:",inline"`
}

// Load reads the order file at path.
func Load(path string) (*order.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read order file")
	}
	r, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return r, nil
}

// Parse decodes an order from YAML. Fields absent from data keep the
// defaults of order.New.
func Parse(data []byte) (*order.Record, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if len(doc.Items) > order.MaxItems {
		return nil, errors.Errorf("too many items: %d (max %d)", len(doc.Items), order.MaxItems)
	}

	r := order.New()
	for name, node := range doc.Fields {
		v, err := scalar(&node)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", name)
		}
		if err := r.Set(name, v); err != nil {
			return nil, err
		}
	}

	for i, item := range doc.Items {
		if i > 0 {
			r.AddItem()
		}
		for name, node := range item {
			v, err := scalar(&node)
			if err != nil {
				return nil, errors.Wrapf(err, "item %d field %q", i+1, name)
			}
			if err := r.SetItem(i, name, v); err != nil {
				return nil, errors.Wrapf(err, "item %d", i+1)
			}
		}
	}
	return r, nil
}

func scalar(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", errors.Errorf("expected a scalar value at line %d", n.Line)
	}
	if n.Tag == "!!null" {
		return "", nil
	}
	return n.Value, nil
}
