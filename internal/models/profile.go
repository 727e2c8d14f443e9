package models

import "time"

// Profile holds the optional personal details shown on the profile page.
// It is keyed by username and kept apart from expense data.
type Profile struct {
	Username          string    `json:"username"          bson:"_id"`
	Name              string    `json:"name"              bson:"name"`
	Email             string    `json:"email"             bson:"email"`
	Phone             string    `json:"phone"             bson:"phone"`
	Address           string    `json:"address"           bson:"address"`
	DateOfBirth       string    `json:"dateOfBirth"       bson:"date_of_birth"`
	Occupation        string    `json:"occupation"        bson:"occupation"`
	MonthlyIncome     float64   `json:"monthlyIncome"     bson:"monthly_income"`
	PreferredCurrency string    `json:"preferredCurrency" bson:"preferred_currency"`
	FinancialGoal     string    `json:"financialGoal"     bson:"financial_goal"`
	Bio               string    `json:"bio"               bson:"bio"`
	MembershipLevel   string    `json:"membershipLevel"   bson:"membership_level"`
	AvatarKey         string    `json:"-"                 bson:"avatar_key"`
	HasAvatar         bool      `json:"hasAvatar"         bson:"-"`
	UpdatedAt         time.Time `json:"updatedAt"         bson:"updated_at"`
}

// DefaultProfile is returned for users that never saved a profile.
func DefaultProfile(username string) *Profile {
	return &Profile{
		Username:          username,
		PreferredCurrency: "USD",
		MembershipLevel:   "Basic",
	}
}

// UpdateProfileRequest is the JSON body for PUT /api/profile.
type UpdateProfileRequest struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Address           string  `json:"address"`
	DateOfBirth       string  `json:"dateOfBirth"`
	Occupation        string  `json:"occupation"`
	MonthlyIncome     float64 `json:"monthlyIncome"`
	PreferredCurrency string  `json:"preferredCurrency"`
	FinancialGoal     string  `json:"financialGoal"`
	Bio               string  `json:"bio"`
	MembershipLevel   string  `json:"membershipLevel"`
}
