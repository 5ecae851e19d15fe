package auth

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

var apiSecret string

// Configure sets the signing secret from the settings snapshot. Falls back to
// the API_SECRET environment variable when never called.
func Configure(secret string) {
	apiSecret = secret
}

func signingKey() []byte {
	if apiSecret != "" {
		return []byte(apiSecret)
	}
	return []byte(os.Getenv("API_SECRET"))
}

// CreateToken issues a signed JWT for the given internal user id.
func CreateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{}
	claims["authorized"] = true
	claims["user_id"] = userID
	claims["exp"] = time.Now().Add(time.Hour * 24).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

func TokenValid(r *http.Request) error {
	tokenString := ExtractToken(r)
	_, err := parseToken(tokenString)
	return err
}

// ExtractToken pulls the bearer token from the query string or the
// Authorization header.
func ExtractToken(r *http.Request) string {
	keys := r.URL.Query()
	token := keys.Get("token")
	if token != "" {
		return token
	}
	bearerToken := r.Header.Get("Authorization")
	if len(strings.Split(bearerToken, " ")) == 2 {
		return strings.Split(bearerToken, " ")[1]
	}
	return ""
}

// ExtractTokenID returns the user id embedded in the request's token.
func ExtractTokenID(r *http.Request) (uint, error) {
	token, err := parseToken(ExtractToken(r))
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	uid, err := strconv.ParseUint(fmt.Sprintf("%.0f", claims["user_id"]), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(uid), nil
}

func parseToken(tokenString string) (*jwt.Token, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey(), nil
	})
}
