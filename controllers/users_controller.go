package controllers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/BeckettFrey/RodRoyale/models"
	"github.com/BeckettFrey/RodRoyale/security"
	"github.com/BeckettFrey/RodRoyale/utils/fileformat"
	"github.com/BeckettFrey/RodRoyale/utils/formaterror"
	httpctx "github.com/BeckettFrey/RodRoyale/utils/httpctx"

	aws2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateUser handles user registration
func (server *Server) CreateUser(c *gin.Context) {
	var user models.User

	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.Prepare()
	errorMessages := user.Validate("")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	userCreated, err := user.SaveUser(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		if _, taken := formattedError["Taken_username"]; taken {
			c.JSON(http.StatusConflict, gin.H{"errors": formattedError})
			return
		}
		if _, taken := formattedError["Taken_email"]; taken {
			c.JSON(http.StatusConflict, gin.H{"errors": formattedError})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"errors": formattedError})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": userToDTO(userCreated, userCreated.ID),
	})
}

// GetUsers retrieves all users
func (server *Server) GetUsers(c *gin.Context) {
	user := models.User{}

	users, err := user.FindAllUsers(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No users found"})
		return
	}

	viewerID, _ := optionalViewerID(c)
	userResponses := make([]UserDTO, len(*users))
	for i := range *users {
		userResponses[i] = userToDTO(&(*users)[i], viewerID)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userResponses,
	})
}

// GetUser retrieves a user by public id, numeric id or username
func (server *Server) GetUser(c *gin.Context) {
	user, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	viewerID, _ := optionalViewerID(c)
	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToDTO(user, viewerID),
	})
}

// UpdateAvatar allows a user to update their avatar image
func (server *Server) UpdateAvatar(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	tokenID, ok := httpctx.CurrentUserID(c)
	if !ok || tokenID != target.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own avatar"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot open file"})
		return
	}
	defer f.Close()

	size := file.Size
	if size > 512_000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (<500KB)"})
		return
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
		return
	}
	fileType := http.DetectContentType(buf)
	if !strings.HasPrefix(fileType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not an image"})
		return
	}

	filePath := fileformat.UniqueFormat(file.Filename)
	key := "UserProfilePics/" + filePath

	fullURL, err := server.uploadToS3(key, buf, fileType)
	if err != nil {
		log.Printf("S3 upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	user := models.User{AvatarPath: filePath}
	updatedUser, err := user.UpdateAUserAvatar(server.DB, target.ID)
	if err != nil {
		log.Printf("DB update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot save image, please try again later"})
		return
	}
	updatedUser.AvatarPath = fullURL

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": userToDTO(updatedUser, tokenID)})
}

// uploadToS3 pushes a file under the configured bucket and returns its public
// virtual-host style URL.
func (server *Server) uploadToS3(key string, body []byte, contentType string) (string, error) {
	rawBucket := server.Cfg.S3Bucket
	bucketName := strings.SplitN(rawBucket, "/", 2)[0]
	if bucketName == "" {
		return "", fmt.Errorf("S3_BUCKET is empty or invalid: %q", rawBucket)
	}

	region := server.Cfg.AWSRegion
	if region == "" {
		region = "us-east-2"
	}
	cfg, err := awsconfig.LoadDefaultConfig(
		context.TODO(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return "", fmt.Errorf("aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	_, err = s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:        aws2.String(bucketName),
		Key:           aws2.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws2.Int64(int64(len(body))),
		ContentType:   aws2.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucketName, region, key), nil
}

// UpdateUser allows a user to update their email, bio and password
func (server *Server) UpdateUser(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	tokenID, ok := httpctx.CurrentUserID(c)
	if !ok || tokenID != target.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var requestBody map[string]string
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse request body"})
		return
	}

	formerUser := models.User{}
	err = server.DB.Model(&models.User{}).Where("id = ?", target.ID).Take(&formerUser).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	newUser := models.User{}
	newUser.Username = formerUser.Username // Usernames are immutable

	// Handle password change if requested
	if currentPassword, ok := requestBody["current_password"]; ok {
		if newPassword, ok := requestBody["new_password"]; ok {
			if len(newPassword) < 6 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Password should be at least 6 characters"})
				return
			}
			err = security.VerifyPassword(formerUser.Password, currentPassword)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
				return
			}
			newUser.Password = newPassword
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "New password is required"})
			return
		}
	}

	if email, ok := requestBody["email"]; ok {
		newUser.Email = email
	} else {
		newUser.Email = formerUser.Email
	}
	if bio, ok := requestBody["bio"]; ok {
		newUser.Bio = bio
	} else {
		newUser.Bio = formerUser.Bio
	}

	newUser.Prepare()
	errorMessages := newUser.Validate("update")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	updatedUser, err := newUser.UpdateAUser(server.DB, target.ID)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"errors": formattedError})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToDTO(updatedUser, tokenID),
	})
}

// DeleteUser removes an account and everything it owns. The cascade runs in a
// single transaction: follow edges first, then pins, then catches, and the
// user row last so a failure partway through never strands a half-deleted
// account.
func (server *Server) DeleteUser(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	tokenID, ok := httpctx.CurrentUserID(c)
	if !ok || tokenID != target.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own account"})
		return
	}

	uid := target.ID
	err = server.DB.Transaction(func(tx *gorm.DB) error {
		if err := removeUserFollowEdges(tx, uid); err != nil {
			return err
		}

		// Pins owned by the user plus pins attached to the user's catches.
		if err := tx.Where(
			"user_id = ? OR catch_id IN (SELECT id FROM catches WHERE user_id = ?)",
			uid, uid,
		).Delete(&models.Pin{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", uid).Delete(&models.Catch{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, uid).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}

	invalidateLeaderboardCache()
	server.Events.Publish("user.deleted", map[string]interface{}{
		"user_id":   uid,
		"public_id": target.PublicID,
	})

	c.Status(http.StatusNoContent)
}
