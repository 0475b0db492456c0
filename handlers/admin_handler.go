package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"costume-voting-backend/database"
	"costume-voting-backend/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminLogin 校验管理员口令并在会话中设置admin标志
func AdminLogin(c *gin.Context) {
	password := c.PostForm("password")
	if password == "" || password != database.GetEnv("ADMIN_PASSWORD", "changeme") {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid password"})
		return
	}

	s := sessions.Default(c)
	s.Set(sessionKeyAdmin, true)
	if err := s.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged in as admin"})
}

// AdminLogout 退出登录，整个会话清空
func AdminLogout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// AdminDashboard 管理面板数据：条目、类别和投票开关
func AdminDashboard(c *gin.Context) {
	entries, err := svc().AllEntries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve entries"})
		return
	}
	cats, err := svc().AllCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":        entries,
		"categories":     cats,
		"voting_enabled": database.VotingEnabled(database.DB),
	})
}

// ToggleVoting 切换voting_enabled开关
func ToggleVoting(c *gin.Context) {
	current := database.GetSetting(database.DB, database.SettingVotingEnabled, "0")
	newVal := "1"
	if current == "1" {
		newVal = "0"
	}
	if err := database.SetSetting(database.DB, database.SettingVotingEnabled, newVal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update setting"})
		return
	}

	log.Printf("投票开关切换为: %s", newVal)
	c.JSON(http.StatusOK, gin.H{"voting_enabled": newVal == "1"})
}

// CategoryAdd 新增类别，名称唯一
func CategoryAdd(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name cannot be empty"})
		return
	}

	cat := models.Category{Name: name, Enabled: true}
	if err := database.DB.Create(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// CategoryToggle 启用/禁用类别
func CategoryToggle(c *gin.Context) {
	cat, ok := findCategory(c)
	if !ok {
		return
	}

	cat.Enabled = !cat.Enabled
	if err := database.DB.Save(cat).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update category"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

// CategoryRename 重命名类别，与现有名称冲突时拒绝
func CategoryRename(c *gin.Context) {
	newName := strings.TrimSpace(c.PostForm("new_name"))
	if newName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new category name cannot be empty"})
		return
	}

	cat, ok := findCategory(c)
	if !ok {
		return
	}

	cat.Name = newName
	if err := database.DB.Save(cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a category with that name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename category"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

// CategoryDelete 删除类别并级联删除引用它的vote_items
func CategoryDelete(c *gin.Context) {
	cat, ok := findCategory(c)
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", cat.ID).Delete(&models.VoteItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(cat).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// PurgeAll 清空全部数据、删除上传照片并重新播种默认值
func PurgeAll(c *gin.Context) {
	if err := database.Purge(database.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge data"})
		return
	}
	photoStore.Clear()

	log.Println("全部数据已清空并重新播种")
	c.JSON(http.StatusOK, gin.H{"message": "all data purged, defaults re-seeded, uploads cleared"})
}

// findCategory 按路径参数查找类别，失败时写好响应并返回false
func findCategory(c *gin.Context) (*models.Category, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID format"})
		return nil, false
	}

	var cat models.Category
	if err := database.DB.First(&cat, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve category"})
		}
		return nil, false
	}
	return &cat, true
}
