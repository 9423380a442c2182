package api

// ProfileResponse is the profile view of a user record.
type ProfileResponse struct {
	CODUsername string `json:"cod_username"`
	Prestige    string `json:"prestige"`
	Level       int    `json:"level"`
}
