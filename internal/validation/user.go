package validation

import (
	"fmt"
	"regexp"
	"strings"

	"nourish/internal/domain"
)

var (
	blockedEmailDomains = []string{"tempmail.com", "throwaway.email"}
	reservedUsernames   = []string{"admin", "root", "api", "test", "user"}
	commonPasswords     = []string{"password", "12345678", "qwerty", "abc123"}
)

var (
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasDigit   = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Registration is the account sign-up payload.
type Registration struct {
	Email           string   `json:"email" validate:"required,email,max=120"`
	Username        string   `json:"username" validate:"required,min=3,max=30,username"`
	Password        string   `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string   `json:"confirm_password" validate:"required"`
	DailyCalories   *float64 `json:"daily_calories" validate:"omitempty,gte=1200,lte=5000"`
	DailyProtein    *float64 `json:"daily_protein" validate:"omitempty,gte=20,lte=300"`
	DailyCarbs      *float64 `json:"daily_carbs" validate:"omitempty,gte=50,lte=500"`
	DailyFat        *float64 `json:"daily_fat" validate:"omitempty,gte=20,lte=200"`
	DailyFiber      *float64 `json:"daily_fiber" validate:"omitempty,gte=10,lte=50"`
}

// Validate normalizes the email and checks every rule.
func (r *Registration) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)

	fe := FieldErrors{}
	check(fe, r)

	if !fe.Has("email") {
		checkEmailDomain(fe, "email", r.Email)
	}
	if !fe.Has("username") {
		checkReservedUsername(fe, "username", r.Username)
	}
	if !fe.Has("password") {
		for _, msg := range passwordStrength(r.Password) {
			fe.Add("password", msg)
		}
	}
	if r.Password != r.ConfirmPassword {
		fe.Add("confirm_password", "Passwords do not match")
	}
	if len(fe) == 0 {
		checkGoalConsistency(fe, r.Goals())
	}
	return fe.Err()
}

// Goals returns the requested goals with defaults for omitted fields.
func (r Registration) Goals() domain.Goals {
	return mergeGoals(domain.DefaultGoals(), r.DailyCalories, r.DailyProtein, r.DailyCarbs, r.DailyFat, r.DailyFiber)
}

// Login is the password sign-in payload.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate normalizes the email and checks required fields.
func (l *Login) Validate() error {
	l.Email = normalizeEmail(l.Email)
	fe := FieldErrors{}
	check(fe, l)
	return fe.Err()
}

// GoalsUpdate is a partial update of the daily goals.
type GoalsUpdate struct {
	DailyCalories *float64 `json:"daily_calories" validate:"omitempty,gte=1200,lte=5000"`
	DailyProtein  *float64 `json:"daily_protein" validate:"omitempty,gte=20,lte=300"`
	DailyCarbs    *float64 `json:"daily_carbs" validate:"omitempty,gte=50,lte=500"`
	DailyFat      *float64 `json:"daily_fat" validate:"omitempty,gte=20,lte=200"`
	DailyFiber    *float64 `json:"daily_fiber" validate:"omitempty,gte=10,lte=50"`
}

// Apply validates u and returns current with the supplied fields replaced.
// Calorie consistency is checked on the merged result.
func (u GoalsUpdate) Apply(current domain.Goals) (domain.Goals, error) {
	fe := FieldErrors{}
	if u.DailyCalories == nil && u.DailyProtein == nil && u.DailyCarbs == nil && u.DailyFat == nil && u.DailyFiber == nil {
		fe.Add(SchemaField, "At least one field must be provided")
		return current, fe.Err()
	}
	check(fe, u)
	if len(fe) > 0 {
		return current, fe.Err()
	}
	merged := mergeGoals(current, u.DailyCalories, u.DailyProtein, u.DailyCarbs, u.DailyFat, u.DailyFiber)
	checkGoalConsistency(fe, merged)
	return merged, fe.Err()
}

// ProfileUpdate changes the email and/or username.
type ProfileUpdate struct {
	Email    *string `json:"email" validate:"omitempty,email,max=120"`
	Username *string `json:"username" validate:"omitempty,min=3,max=30,username"`
}

// Validate normalizes and checks the supplied fields.
func (p *ProfileUpdate) Validate() error {
	fe := FieldErrors{}
	if p.Email == nil && p.Username == nil {
		fe.Add(SchemaField, "At least one field must be provided")
		return fe.Err()
	}
	if p.Email != nil {
		e := normalizeEmail(*p.Email)
		p.Email = &e
	}
	if p.Username != nil {
		u := strings.TrimSpace(*p.Username)
		p.Username = &u
	}
	check(fe, p)
	if p.Email != nil && !fe.Has("email") {
		checkEmailDomain(fe, "email", *p.Email)
	}
	if p.Username != nil && !fe.Has("username") {
		checkReservedUsername(fe, "username", *p.Username)
	}
	return fe.Err()
}

// PasswordChange replaces the password of a signed-in user.
type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Validate checks strength and confirmation of the new password.
func (p PasswordChange) Validate() error {
	fe := FieldErrors{}
	check(fe, p)
	if !fe.Has("new_password") {
		for _, msg := range passwordStrength(p.NewPassword) {
			fe.Add("new_password", msg)
		}
	}
	if p.NewPassword != p.ConfirmPassword {
		fe.Add("confirm_password", "Passwords do not match")
	}
	return fe.Err()
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkEmailDomain(fe FieldErrors, field, email string) {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return
	}
	d := strings.ToLower(email[at+1:])
	for _, blocked := range blockedEmailDomains {
		if d == blocked {
			fe.Add(field, "Please use a valid email address")
			return
		}
	}
}

func checkReservedUsername(fe FieldErrors, field, username string) {
	for _, r := range reservedUsernames {
		if strings.EqualFold(username, r) {
			fe.Add(field, "This username is reserved")
			return
		}
	}
}

// passwordStrength returns every unmet strength rule for pw.
func passwordStrength(pw string) []string {
	var msgs []string
	if !hasUpper.MatchString(pw) {
		msgs = append(msgs, "Must contain at least one uppercase letter")
	}
	if !hasLower.MatchString(pw) {
		msgs = append(msgs, "Must contain at least one lowercase letter")
	}
	if !hasDigit.MatchString(pw) {
		msgs = append(msgs, "Must contain at least one number")
	}
	if !hasSpecial.MatchString(pw) {
		msgs = append(msgs, "Must contain at least one special character")
	}
	for _, c := range commonPasswords {
		if strings.EqualFold(pw, c) {
			msgs = append(msgs, "This password is too common")
			break
		}
	}
	return msgs
}

func mergeGoals(g domain.Goals, calories, protein, carbs, fat, fiber *float64) domain.Goals {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = domain.Round1(*v)
		}
	}
	set(&g.Calories, calories)
	set(&g.Protein, protein)
	set(&g.Carbs, carbs)
	set(&g.Fat, fat)
	set(&g.Fiber, fiber)
	return g
}

// checkGoalConsistency requires calories within 15% of the macro estimate.
func checkGoalConsistency(fe FieldErrors, g domain.Goals) {
	calc := domain.MacroCalories(g.Protein, g.Carbs, g.Fat)
	if g.Calories < calc*0.85 || g.Calories > calc*1.15 {
		fe.Add("daily_calories", fmt.Sprintf("Calories (%g) don't match macros (expected ~%.0f)", g.Calories, calc))
	}
}
