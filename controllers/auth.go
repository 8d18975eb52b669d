package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"wardrobeapi/models"
	"wardrobeapi/services"

	apple "github.com/Timothylock/go-signin-with-apple/apple"
	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const defaultAvatarURL = "https://pub-df730af6a36c46a58d6d948f149dae31.r2.dev/user-circle.png"

type AuthController struct {
	Google services.GoogleServiceProvider
}

func signInResponse(c echo.Context, user *models.UserAccount, isNew bool) error {
	refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
	if err != nil {
		fmt.Println(err)
		return echo.ErrInternalServerError
	}
	return c.JSON(http.StatusOK, models.SignInOut{
		Id:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		New:          isNew,
		Avatar:       user.AvatarURL,
		AccessToken:  GenerateUserToken(fmt.Sprint(user.ID), c, 72),
		RefreshToken: refreshToken,
	})
}

var signInColumns = []string{"google_id", "apple_id", "last_ip", "platform", "avatar_url", "name"}

// findOrCreateUser matches by provider id first, then links an account with the same email.
func findOrCreateUser(db *gorm.DB, column, providerID, email string, fill func(u *models.UserAccount)) (*models.UserAccount, bool, error) {
	var user models.UserAccount
	r := db.Where(column+" = ?", providerID).Limit(1).Find(&user)
	if r.Error != nil {
		return nil, false, r.Error
	}
	if r.RowsAffected == 0 && email != "" {
		r = db.Where("email = ?", email).Limit(1).Find(&user)
		if r.Error != nil {
			return nil, false, r.Error
		}
	}
	isNew := r.RowsAffected == 0
	if isNew {
		user = models.UserAccount{
			Email:                email,
			Name:                 email,
			Status:               "FINISHED_AUTH",
			AvatarURL:            defaultAvatarURL,
			ReceiveNotifications: true,
			Undertone:            models.UndertoneNeutral,
		}
	}
	fill(&user)
	if isNew {
		if err := db.Create(&user).Error; err != nil {
			return nil, false, err
		}
		return &user, true, nil
	}
	// counters such as green_points belong to other writers
	err := db.Model(&user).Select(signInColumns).Updates(&user).Error
	if err != nil {
		return nil, false, err
	}
	return &user, false, nil
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/google", func(c echo.Context) (err error) {
		googleCreds := new(models.GoogleAuthSignIn)
		if err := c.Bind(googleCreds); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(googleCreds.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}
		if err = c.Validate(googleCreds); err != nil {
			return err
		}

		payload, err := m.Google.ValidateIdToken(context.Background(), googleCreds.IdToken, os.Getenv("GOOGLE_CLIENT_ID"))
		if err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
		}
		googleId, ok := payload.Claims["sub"].(string)
		if !ok {
			sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data %s", payload.Claims))
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
		}
		googleEmail, ok := payload.Claims["email"].(string)
		if !ok {
			sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data email %s", payload.Claims))
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
		}
		pictureUrl, _ := payload.Claims["picture"].(string)
		googleName, _ := payload.Claims["name"].(string)

		db := c.Get("__db").(*gorm.DB)
		user, isNew, err := findOrCreateUser(db, "google_id", googleId, googleEmail, func(u *models.UserAccount) {
			u.GoogleID = googleId
			u.LastIp = c.RealIP()
			u.Platform = models.ScanPlatform(googleCreds.Platform)
			if pictureUrl != "" && (u.AvatarURL == "" || u.AvatarURL == defaultAvatarURL) {
				u.AvatarURL = pictureUrl
			}
			if name := IfThenElse(googleCreds.Name != "", googleCreds.Name, googleName).(string); name != "" && (u.Name == "" || u.Name == u.Email) {
				u.Name = name
			}
		})
		if err != nil {
			log.Println("[Google signin]", err)
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
		}
		if user.Banned {
			return echo.ErrForbidden
		}
		fmt.Println("[Google signin] user", user.ID, "new:", isNew)
		return signInResponse(c, user, isNew)
	})

	g.POST("/apple", func(c echo.Context) error {
		var req models.AppleAuthRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		}
		if err := c.Validate(&req); err != nil {
			return err
		}

		teamID := os.Getenv("APPLE_TEAM_ID")
		keyID := os.Getenv("APPLE_KEY_ID")
		// the "Services ID" of the sign in with Apple enabled service
		clientID := os.Getenv("APPLE_CLIENT_ID")

		// contents of the p8 key
		secret, err := services.DecodeBase64EnvPrivateKey("APPLE_SIGNIN_PKEY_BASE64")
		if err != nil {
			log.Println("Error getting Apple private key:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		secret, err = apple.GenerateClientSecret(secret, teamID, clientID, keyID)
		if err != nil {
			log.Println("Error generating Apple client secret:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		client := apple.New()

		vReq := apple.AppValidationTokenRequest{
			ClientID:     clientID,
			ClientSecret: secret,
			Code:         req.AuthorizationCode,
		}
		var resp apple.ValidationResponse
		err = client.VerifyAppToken(context.Background(), vReq, &resp)
		if err != nil {
			fmt.Println("error verifying: " + err.Error())
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
		}
		if resp.Error != "" {
			fmt.Printf("apple returned an error: %s - %s\n", resp.Error, resp.ErrorDescription)
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials through Apple"})
		}

		appleId, err := apple.GetUniqueID(resp.IDToken)
		if err != nil {
			fmt.Println("failed to get unique ID: " + err.Error())
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't get your unique identifier"})
		}
		claim, err := apple.GetClaims(resp.IDToken)
		if err != nil {
			fmt.Println("failed to get claims: " + err.Error())
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't get your information"})
		}
		appleEmail, _ := (*claim)["email"].(string)

		db := c.Get("__db").(*gorm.DB)
		var existing int64
		db.Model(&models.UserAccount{}).Where("apple_id = ?", appleId).Count(&existing)
		if existing == 0 && appleEmail == "" {
			fmt.Println("[Apple signin] New user but no email in claims")
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "It seems that you sign in the first time and no email was provided by Apple. Please try again."})
		}

		user, isNew, err := findOrCreateUser(db, "apple_id", appleId, appleEmail, func(u *models.UserAccount) {
			u.AppleID = appleId
			u.LastIp = c.RealIP()
			u.Platform = models.ScanPlatform(req.Platform)
			if u.AvatarURL == "" {
				u.AvatarURL = defaultAvatarURL
			}
		})
		if err != nil {
			log.Println("[Apple signin]", err)
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
		}
		if user.Banned {
			return echo.ErrForbidden
		}
		return signInResponse(c, user, isNew)
	})

	g.POST("/refresh-token", func(c echo.Context) error {
		tokenReq := new(models.RefreshTokenIn)
		if err := c.Bind(tokenReq); err != nil {
			fmt.Println(err)
			return echo.ErrBadRequest
		}
		if tokenReq.RefreshToken == "" {
			fmt.Println("Refresh token is empty")
			return echo.ErrBadRequest
		}

		token, err := jwt.Parse(tokenReq.RefreshToken, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil {
			fmt.Println(err)
			return echo.ErrBadRequest
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return echo.ErrBadRequest
		}

		db := c.Get("__db").(*gorm.DB)
		data, ok := claims["sub"].(string)
		if !ok {
			fmt.Println("Cannot convert sub to string!")
			return echo.ErrBadRequest
		}
		userId, err := strconv.Atoi(data)
		if err != nil || userId < 1 {
			fmt.Println("Refresh: bad sub", data)
			return echo.ErrBadRequest
		}
		var user models.UserAccount
		result := db.First(&user, userId)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			fmt.Println("Requested user not found!", userId)
			return echo.ErrForbidden
		}
		if result.Error != nil {
			fmt.Println("Error getting user while refreshing token", userId)
			return echo.ErrInternalServerError
		}
		if user.Banned {
			return echo.ErrUnauthorized
		}

		t := GenerateUserToken(fmt.Sprint(userId), c, 72)
		rt, err := GenerateRefreshToken(fmt.Sprint(userId))
		if err != nil {
			fmt.Println("Error refreshing token ", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, echo.Map{
			"access_token":  t,
			"refresh_token": rt,
		})
	})

	g.POST("/register-push", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		var tokenRequest = new(models.UserPushIn)

		if err := c.Bind(tokenRequest); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(tokenRequest.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}
		var pushData models.UserPushToken = models.UserPushToken{
			Platform:      models.ScanPlatform(tokenRequest.Platform),
			Token:         tokenRequest.Token,
			UserAccountID: user.ID,
			Active:        true,
		}

		// the same device may sign in to several accounts and keeps receiving pushes for each
		result := db.Where("token = ? and user_account_id = ?", tokenRequest.Token, user.ID).FirstOrCreate(&pushData)
		if result.Error != nil {
			log.Println(result.Error)
			return echo.ErrInternalServerError
		}
		if !pushData.Active {
			db.Model(&pushData).Update("active", true)
		}
		fmt.Println("Push id ", pushData.ID, " Platform: ", pushData.Platform, "User ID:", pushData.UserAccountID)
		return c.JSON(http.StatusOK, echo.Map{
			"message": "registered",
			"push_id": pushData.ID,
		})
	}, echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)

	g.POST("/delete-push", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		var tokenRequest = new(models.UserPushIn)

		if err := c.Bind(tokenRequest); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(tokenRequest.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}

		result := db.Where("token = ? and user_account_id = ? and platform = ?", tokenRequest.Token, user.ID, tokenRequest.Platform).Delete(&models.UserPushToken{})
		if result.Error != nil {
			log.Println(result.Error)
			return echo.ErrInternalServerError
		}
		if result.RowsAffected >= 1 {
			fmt.Println("Token deleted for user ", user.ID, "Platform: ", tokenRequest.Platform)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message": "deleted",
			"deleted": result.RowsAffected > 0,
		})
	}, echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)
}
