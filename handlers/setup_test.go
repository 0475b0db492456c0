package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"costume-voting-backend/database"
	"costume-voting-backend/models"
	"costume-voting-backend/storage"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestEnv 准备一套完整的测试环境：内存数据库、临时照片目录
// 和带会话中间件的路由。路由在这里手动声明，handlers包的测试不能
// 引入routes包（会形成导入环）。
func setupTestEnv(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	database.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	store, err := storage.NewPhotoStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create photo store: %v", err)
	}
	InitHandlers(store, nil)
	InitRateLimiter()

	router := gin.New()

	cookieStore := cookie.NewStore([]byte("test-secret"))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true})
	router.Use(sessions.Sessions("costume_voting", cookieStore))

	api := router.Group("/api")
	{
		api.Use(RateLimitMiddleware())

		api.GET("/health", HealthCheck)
		api.GET("/status", SystemStatus)
		api.GET("/stats", PublicStats)

		api.POST("/entries", SubmitEntry)
		api.GET("/entries", ListEntries)

		vote := api.Group("/vote")
		{
			vote.GET("", VotingStatus)
			vote.GET("/step/:idx", GetVoteStep)
			vote.POST("/step/:idx", PostVoteStep)
			vote.POST("/finish", FinishVote)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", AdminLogin)
			admin.POST("/logout", AdminLogout)

			authed := admin.Group("")
			authed.Use(AdminRequired())
			{
				authed.GET("/dashboard", AdminDashboard)
				authed.POST("/toggle_voting", ToggleVoting)
				authed.POST("/categories", CategoryAdd)
				authed.POST("/categories/:id/toggle", CategoryToggle)
				authed.POST("/categories/:id/rename", CategoryRename)
				authed.POST("/categories/:id/delete", CategoryDelete)
				authed.POST("/entries/:id/delete", DeleteEntry)
				authed.POST("/purge", PurgeAll)
				authed.GET("/results", Results)
				authed.GET("/audit", Audit)
				authed.GET("/audit.csv", AuditCSV)
				authed.GET("/ratelimit/stats", GetRateLimiterStats)
			}
		}
	}

	return router
}

// testClient 在多个请求之间携带会话cookie，模拟同一个浏览器
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newClient(t *testing.T, router *gin.Engine) *testClient {
	return &testClient{t: t, router: router}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	// 保留服务端下发的cookie供后续请求使用
	for _, ck := range w.Result().Cookies() {
		replaced := false
		for i, existing := range c.cookies {
			if existing.Name == ck.Name {
				c.cookies[i] = ck
				replaced = true
				break
			}
		}
		if !replaced {
			c.cookies = append(c.cookies, ck)
		}
	}
	return w
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	return c.do(req)
}

func (c *testClient) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// postMultipart 提交multipart表单，photoName非空时附带照片文件
func (c *testClient) postMultipart(path string, fields map[string]string, photoName string, photo []byte) *httptest.ResponseRecorder {
	c.t.Helper()

	var body strings.Builder
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if photoName != "" {
		fw, err := w.CreateFormFile("photo", photoName)
		if err != nil {
			c.t.Fatalf("Failed to build multipart form: %v", err)
		}
		if _, err := fw.Write(photo); err != nil {
			c.t.Fatalf("Failed to write photo bytes: %v", err)
		}
	}
	_ = w.Close()

	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body.String()))
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

// loginAdmin 用默认口令登录管理员
func (c *testClient) loginAdmin() {
	c.t.Helper()
	w := c.postForm("/api/admin/login", url.Values{"password": {"changeme"}})
	if w.Code != http.StatusOK {
		c.t.Fatalf("Admin login failed: status=%d body=%s", w.Code, w.Body.String())
	}
}

// 数据准备辅助函数

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func enableVoting(t *testing.T) {
	t.Helper()
	if err := database.SetSetting(database.DB, database.SettingVotingEnabled, "1"); err != nil {
		t.Fatalf("Failed to enable voting: %v", err)
	}
}

func createCategory(t *testing.T, name string) models.Category {
	t.Helper()
	cat := models.Category{Name: name, Enabled: true}
	if err := database.DB.Create(&cat).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return cat
}

func createEntry(t *testing.T, first, last, costume string) models.Entry {
	t.Helper()
	entry := models.Entry{FirstName: first, LastName: last, CostumeName: costume}
	if err := database.DB.Create(&entry).Error; err != nil {
		t.Fatalf("Failed to create entry: %v", err)
	}
	return entry
}
