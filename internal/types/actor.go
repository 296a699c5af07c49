package types

// Actor identifies who performed an admin operation and from where
type Actor struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

// SystemActor is used for changes made by the CLI and background workers
var SystemActor = Actor{UserID: "system", Name: "system"}
