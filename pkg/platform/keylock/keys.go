package keylock

// Key namespaces. Each service owns one namespace so lock acquisition across
// services always flows feature-key -> citizen-key and never the reverse.
func CitizenKey(id string) string    { return "citizen/" + id }
func EmploymentKey(id string) string { return "employment/" + id }
func BusinessKey(id string) string   { return "business/" + id }
func PropertyKey(id string) string   { return "property/" + id }
func FineKey(id string) string       { return "fine/" + id }
func WantedKey(id string) string     { return "wanted/" + id }
