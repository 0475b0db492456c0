package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"costume-voting-backend/database"
	"costume-voting-backend/models"
	"costume-voting-backend/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubmitEntry 处理参赛条目提交（multipart表单，照片可选）
func SubmitEntry(c *gin.Context) {
	first := strings.TrimSpace(c.PostForm("first_name"))
	last := strings.TrimSpace(c.PostForm("last_name"))
	costume := strings.TrimSpace(c.PostForm("costume_name"))

	if first == "" || last == "" || costume == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first name, last name, and costume name are required"})
		return
	}

	var photoPath string
	file, err := c.FormFile("photo")
	if err == nil && file != nil && file.Filename != "" {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read photo"})
			return
		}
		defer src.Close()

		photoPath, err = photoStore.Save(file.Filename, file.Size, src)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidPhotoType) || errors.Is(err, storage.ErrPhotoTooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store photo"})
			return
		}
	}

	entry := models.Entry{
		FirstName:   first,
		LastName:    last,
		CostumeName: costume,
		PhotoPath:   photoPath,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		// 数据库失败时清理已落盘的照片
		photoStore.Remove(photoPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create entry"})
		return
	}

	log.Printf("新条目提交: ID=%d, 服装=%s", entry.ID, entry.CostumeName)
	c.JSON(http.StatusCreated, entry)
}

// ListEntries 返回全部参赛条目，最新的在前
func ListEntries(c *gin.Context) {
	entries, err := svc().AllEntries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve entries"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// DeleteEntry 管理员删除条目；照片文件尽力删除，vote_items级联删除
func DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry ID format"})
		return
	}

	var entry models.Entry
	if err := database.DB.First(&entry, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve entry"})
		}
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.VoteItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}

	// 事务提交后再删文件，失败只记日志
	photoStore.Remove(entry.PhotoPath)

	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}
