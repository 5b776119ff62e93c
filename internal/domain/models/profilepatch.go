package models

// ProfileField names a user field that registration may fill in.
type ProfileField string

const (
	FieldName               ProfileField = "name"
	FieldImage              ProfileField = "image"
	FieldRole               ProfileField = "role"
	FieldBloodGroup         ProfileField = "bloodGroup"
	FieldDistrict           ProfileField = "district"
	FieldUpazila            ProfileField = "upazila"
	FieldPhone              ProfileField = "phone"
	FieldAvailabilityStatus ProfileField = "availabilityStatus"
)

// MergeableFields lists the fields a repeat registration may overwrite.
var MergeableFields = []ProfileField{
	FieldName,
	FieldImage,
	FieldRole,
	FieldBloodGroup,
	FieldDistrict,
	FieldUpazila,
	FieldPhone,
	FieldAvailabilityStatus,
}

// ProfilePatch maps optional profile fields to candidate values. An absent
// key and an empty value mean the same thing: keep what is stored.
type ProfilePatch map[ProfileField]string

// NonEmpty returns the entries that should be written, keyed by stored field
// name. Fields outside MergeableFields are ignored.
func (p ProfilePatch) NonEmpty() map[string]string {
	out := make(map[string]string, len(p))
	for _, f := range MergeableFields {
		if v, ok := p[f]; ok && v != "" {
			out[string(f)] = v
		}
	}
	return out
}

// Get returns the value for f, or "" when absent.
func (p ProfilePatch) Get(f ProfileField) string {
	return p[f]
}
