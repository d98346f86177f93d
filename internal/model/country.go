package model

// Country is static reference data; values are never mutated at runtime.
type Country struct {
	Code   string `json:"code"`   // ISO 3166-1 alpha-2
	Name   string `json:"name"`   // canonical name stored on users
	Region string `json:"region"`
}
