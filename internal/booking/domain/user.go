package domain

// User role and account status values as stored.
const (
	UserTypeCustomer   = "customer"
	UserTypeTranslator = "translator"

	UserStatusActive = "active"
)

// Translator types carried in user meta.
const (
	TranslatorTypeProfessional = "professional"
	TranslatorTypeRWS          = "rwstranslator"
	TranslatorTypeVolunteer    = "volunteer"
)

// User is an account, customer or translator.
type User struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	Mobile   string `db:"mobile"`
	UserType string `db:"user_type"`
	Status   string `db:"status"`
}

// IsCustomer reports whether the user holds the customer role.
func (u *User) IsCustomer() bool { return u.UserType == UserTypeCustomer }

// IsTranslator reports whether the user holds the translator role.
func (u *User) IsTranslator() bool { return u.UserType == UserTypeTranslator }

// UserMeta is per-user profile and notification preference data,
// read-only to the booking core.
type UserMeta struct {
	UserID          int64         `db:"user_id"`
	TranslatorType  string        `db:"translator_type"`
	Gender          Gender        `db:"gender"`
	TranslatorLevel Certification `db:"translator_level"`
	City            string        `db:"city"`
	ConsumerType    string        `db:"consumer_type"`
	Instructions    string        `db:"instructions"`

	// Opt-out notification preferences.
	NotGetEmergency    bool `db:"not_get_emergency"`
	NotGetNighttime    bool `db:"not_get_nighttime"`
	NotGetNotification bool `db:"not_get_notification"`
}

// Language is a bookable interpretation language.
type Language struct {
	ID   int64  `db:"id"`
	Name string `db:"language"`
}
