package models

// Resource type names as they appear in SCIM paths and provisioning events.
const (
	ResourceTypeUser  = "User"
	ResourceTypeGroup = "Group"
)

// Document is an open SCIM resource. Only the "id" attribute is owned by the server.
type Document map[string]any

// ID returns the document's id attribute, or "" when it is missing or not a string.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Clone returns a deep copy of the nested objects and arrays, so callers can't mutate
// stored state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneObject(d))
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneObject(t)
	case Document:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// ListResponse is the envelope returned by the list endpoints.
type ListResponse struct {
	Resources    []Document `json:"Resources"`
	TotalResults int        `json:"totalResults"`
}

// StatusResponse acknowledges an operation that has no resource to return.
type StatusResponse struct {
	Status string `json:"status"`
}
