package fetch

import (
	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"gopkg.in/yaml.v3"
)

// ClientConfigField is the document field holding the client configuration.
const ClientConfigField = "clientConfig"

// Document is a parsed configuration document.
type Document map[string]interface{}

// Decode parses body as YAML. A body that is not a mapping is a Parse fault.
func Decode(body []byte) (Document, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fault.Wrap(fault.Parse, err, "unable to parse configuration document")
	}
	return Document(doc), nil
}

// Image resolves the target image. clientConfig may be a sequence whose
// first element holds a string image, or a mapping holding one directly.
// The sequence shape is tried first and the mapping shape only when it does
// not yield a string, so a document carrying both resolves to the sequence.
// The image is returned verbatim.
func (d Document) Image() (string, error) {
	cc := d[ClientConfigField]

	var fromSeq interface{}
	if seq, ok := cc.([]interface{}); ok && len(seq) > 0 {
		if first, ok := asMap(seq[0]); ok {
			fromSeq = first["image"]
		}
	}
	image, ok := fromSeq.(string)
	if !ok {
		if m, isMap := asMap(cc); isMap {
			image, ok = m["image"].(string)
		}
	}
	if !ok {
		return "", fault.Errorf(fault.Schema, "%s image is not a string: %#v (%s: %#v)",
			ClientConfigField, fromSeq, ClientConfigField, cc)
	}
	return image, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}
