package endpoint

import (
	"fmt"
	"time"

	"github.com/clinicdesk/clinic-api/middleware"
	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	tokenLifetime     = 7 * 24 * time.Hour
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

type registerRequest struct {
	FirstName string `json:"firstName" example:"Ana"`
	LastName  string `json:"lastName" example:"Lim"`
	Email     string `json:"email" example:"ana@example.com"`
	Password  string `json:"password" example:"s3cret-pass"`
	Role      string `json:"role" example:"receptionist"`
}

// Register godoc
// @Summary      Register a new account
// @Description  Creates a staff or patient portal account. Role defaults to patient.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body registerRequest true "Account information"
// @Success      201 {object} util.APIResponse{data=model.User} "Account created"
// @Failure      400 {object} util.APIResponse "Invalid request or email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /auth/register [post]
func Register(c *gin.Context) {
	var req registerRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	req.FirstName = util.NormalizeName(req.FirstName)
	req.LastName = util.NormalizeName(req.LastName)
	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "firstName, email and password are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if len(req.Password) < 8 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "password must be at least 8 characters",
			Err: fmt.Errorf("password too short"),
		})
		return
	}
	if req.Role == "" {
		req.Role = model.RolePatient
	}
	if !model.ValidRole(req.Role) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "role must be admin, receptionist, doctor or patient",
			Err: fmt.Errorf("invalid role %q", req.Role),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create account", Err: err})
		return
	}
	hashed, err := util.HashPasswordArgon2(req.Password, salt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create account", Err: err})
		return
	}

	user := model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     hashed,
		PasswordSalt: salt,
		Role:         req.Role,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing model.User
		if err := tx.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			return fmt.Errorf("email already registered")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to create account", Err: err})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSignupSuccess,
		UserID:    fmt.Sprintf("%d", user.ID),
		Email:     user.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Account registered",
	})

	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Account created", Data: user})
}

type loginRequest struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

func issueToken(user model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"email":   user.Email,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(util.GetJWTSecretByte())
}

func recordFailedLogin(db *gorm.DB, user *model.User, ip, userAgent string) {
	user.FailedAttempts++
	if user.FailedAttempts >= maxFailedAttempts {
		until := time.Now().Add(lockoutDuration)
		user.LockedUntil = &until
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventAccountLocked,
			UserID:    fmt.Sprintf("%d", user.ID),
			Email:     user.Email,
			IP:        ip,
			UserAgent: userAgent,
			Message:   fmt.Sprintf("Account locked after %d failed attempts", user.FailedAttempts),
		})
	}
	db.Model(user).Select("failed_attempts", "locked_until").Updates(map[string]interface{}{
		"failed_attempts": user.FailedAttempts,
		"locked_until":    user.LockedUntil,
	})
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials and returns a signed bearer token valid for seven days
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body loginRequest true "Credentials"
// @Success      200 {object} util.APIResponse{data=object} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      401 {object} util.APIResponse "Invalid credentials or account locked"
// @Router       /auth/login [post]
func Login(c *gin.Context) {
	var req loginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	if req.Email == "" || req.Password == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "email and password are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()

	var user model.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		util.LogLoginFailure(req.Email, ip, userAgent, "unknown email")
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Invalid email or password",
			Err: fmt.Errorf("authentication failed"),
		})
		return
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		util.LogLoginFailure(req.Email, ip, userAgent, "account locked")
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Account is temporarily locked, try again later",
			Err: fmt.Errorf("account locked"),
		})
		return
	}

	match, err := util.VerifyPassword(req.Password, user.Password, user.PasswordSalt)
	if err != nil || !match {
		util.LogLoginFailure(req.Email, ip, userAgent, "wrong password")
		recordFailedLogin(db, &user, ip, userAgent)
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Invalid email or password",
			Err: fmt.Errorf("authentication failed"),
		})
		return
	}

	// Successful legacy-hash logins are transparently upgraded to argon2id.
	if util.IsLegacyHash(user.Password) {
		if salt, err := util.GenerateSalt(); err == nil {
			if upgraded, err := util.HashPasswordArgon2(req.Password, salt); err == nil {
				db.Model(&user).Select("password", "password_salt").Updates(map[string]interface{}{
					"password":      upgraded,
					"password_salt": salt,
				})
			}
		}
	}

	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		db.Model(&user).Select("failed_attempts", "locked_until").Updates(map[string]interface{}{
			"failed_attempts": 0,
			"locked_until":    nil,
		})
	}

	tokenString, err := issueToken(user)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to issue token", Err: err})
		return
	}

	util.LogLoginSuccess(user.ID, user.Email, ip, userAgent)
	middleware.ResetRateLimit(c.ClientIP(), c.Request.URL.Path)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Login successful",
		Data: map[string]interface{}{
			"token":     tokenString,
			"expiresIn": int(tokenLifetime.Seconds()),
			"user":      user,
		},
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented bearer token for the rest of its lifetime
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse "Logged out"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Router       /auth/logout [post]
func Logout(c *gin.Context) {
	tokenString := middleware.GetBearerToken(c)
	if tokenString == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "No token to revoke",
			Err: fmt.Errorf("missing token"),
		})
		return
	}

	// The token already passed AuthRequired, so parsing here only recovers
	// the expiry for the denylist TTL.
	ttl := tokenLifetime
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return util.GetJWTSecretByte(), nil
	}); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			ttl = time.Until(time.Unix(int64(exp), 0))
		}
	}

	if err := util.RevokeToken(tokenString, ttl); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to revoke token", Err: err})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventLogout,
		UserID:    fmt.Sprintf("%d", middleware.GetUserID(c)),
		Email:     middleware.GetUserEmail(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "User logged out",
	})

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Logged out"})
}
