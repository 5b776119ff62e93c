package models

// Blog statuses. Only published blogs are publicly visible.
const (
	BlogDraft     = "draft"
	BlogPublished = "published"
)

// Known blog / contact keys.
const (
	KeyStatus  = "status"
	KeyContent = "content"
	KeyRead    = "read"
)

// IsValidBlogStatus reports whether s is draft or published.
func IsValidBlogStatus(s string) bool {
	return s == BlogDraft || s == BlogPublished
}
