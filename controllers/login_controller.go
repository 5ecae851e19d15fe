package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/BeckettFrey/RodRoyale/auth"
	"github.com/BeckettFrey/RodRoyale/models"
	"github.com/BeckettFrey/RodRoyale/security"
	"github.com/BeckettFrey/RodRoyale/utils/formaterror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login authenticates with email and password and returns a bearer token.
func (server *Server) Login(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}
	user := models.User{}
	err = json.Unmarshal(body, &user)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}
	user.Prepare()
	errorMessages := user.Validate("login")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}
	userData, err := server.SignIn(user.Email, user.Password)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  formattedError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userData,
	})
}

func (server *Server) SignIn(email, password string) (map[string]interface{}, error) {

	userData := make(map[string]interface{})

	user := models.User{}

	normalizedEmail := strings.ToLower(email)
	err := server.DB.Model(models.User{}).Where("lower(email) = ?", normalizedEmail).Take(&user).Error
	if err != nil {
		return nil, err
	}
	err = security.VerifyPassword(user.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return nil, err
	}
	token, err := auth.CreateToken(user.ID)
	if err != nil {
		return nil, err
	}
	userData["token"] = token
	userData["id"] = user.PublicID
	userData["email"] = user.Email
	userData["username"] = user.Username
	userData["bio"] = user.Bio
	userData["avatar_path"] = user.AvatarPath

	return userData, nil
}

// ForgotPassword issues a reset token and mails it. The response is the same
// whether the email exists or not so the endpoint cannot be used to
// enumerate accounts.
func (server *Server) ForgotPassword(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Cannot parse request body"})
		return
	}

	user.Prepare()
	errorMessages := user.Validate("forgotpassword")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	var existing models.User
	err := server.DB.Where("email = ?", user.Email).Take(&existing).Error
	if err == nil {
		resetDetails := models.ResetPassword{
			Email: existing.Email,
			Token: uuid.NewString(),
		}
		resetDetails.Prepare()
		if _, err := resetDetails.SaveDetails(server.DB); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
			return
		}
		if err := server.Mailer.SendResetPassword(existing.Email, existing.Username, resetDetails.Token); err != nil {
			log.Printf("reset mail to %s failed: %v", existing.Email, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "If that email exists, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and sets the new password.
func (server *Server) ResetPassword(c *gin.Context) {
	var requestBody map[string]string
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Cannot parse request body"})
		return
	}

	token := strings.TrimSpace(requestBody["token"])
	newPassword := requestBody["new_password"]
	retypePassword := requestBody["retype_password"]

	if token == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Required reset token"})
		return
	}
	if len(newPassword) < 6 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Password should be at least 6 characters"})
		return
	}
	if newPassword != retypePassword {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Passwords do not match"})
		return
	}

	var details models.ResetPassword
	if err := server.DB.Where("token = ?", token).Take(&details).Error; err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid or expired reset token"})
		return
	}
	if time.Since(details.CreatedAt) > time.Hour {
		_, _ = details.DeleteDetails(server.DB)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	user := models.User{Email: details.Email, Password: newPassword}
	if err := user.UpdatePassword(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}
	if _, err := details.DeleteDetails(server.DB); err != nil {
		log.Printf("delete reset details: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Password updated successfully",
	})
}
