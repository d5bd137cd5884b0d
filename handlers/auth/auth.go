package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	jwtSecret []byte
	tokenTTL  = 24 * time.Hour
)

// AppClaims represents the custom claims for the JWT.
type AppClaims struct {
	jwt.RegisteredClaims
	UserID   core.ID `json:"uid"`
	Username string  `json:"username"`
	Email    string  `json:"email,omitempty"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Init sets the signing secret and token lifetime.
func Init(secret string, ttl time.Duration) {
	jwtSecret = []byte(secret)
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

func HandleRegister(store core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request"})
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Username, email and a password of at least 6 characters are required"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Error("Failed to hash password")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to hash password"})
			return
		}

		user := &core.User{Username: req.Username, Email: req.Email, PasswordHash: string(hash)}
		if err := store.CreateUser(r.Context(), user); err != nil {
			if errors.Is(err, core.ErrConflict) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, map[string]string{"error": "User already exists"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error": err,
				"email": req.Email,
			}).Error("Failed to create user")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create user"})
			return
		}

		logrus.WithField("user_id", user.ID).Info("User registered")
		render.JSON(w, r, map[string]string{"message": "User registered successfully"})
	}
}

func HandleLogin(store core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request"})
			return
		}

		user, err := store.FindUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Invalid email or password"})
			return
		}

		token, err := createJWT(user)
		if err != nil {
			logrus.Errorf("failed to create JWT: %s", err.Error())
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create token"})
			return
		}

		render.JSON(w, r, map[string]string{
			"message":  "Login successful",
			"username": user.Username,
			"token":    token,
		})
	}
}

func createJWT(user *core.User) (string, error) {
	now := time.Now()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
