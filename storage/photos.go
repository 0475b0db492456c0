package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPhotoSize 上传照片大小上限
const MaxPhotoSize = 5 * 1024 * 1024 // 5 MB

// 允许的照片扩展名
var allowedExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

var (
	ErrInvalidPhotoType = errors.New("invalid photo type, allowed: jpg, jpeg, png, gif")
	ErrPhotoTooLarge    = errors.New("photo exceeds the 5 MB limit")
)

// PhotoStore 管理上传照片的落盘存储
type PhotoStore struct {
	dir string
}

// NewPhotoStore 创建照片存储，目录不存在时自动创建
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %v", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Dir 返回存储目录
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Allowed 检查文件名的扩展名是否在白名单内
func Allowed(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return allowedExts[ext]
}

// Save 保存照片字节流并返回稳定的文件名引用。
// 文件名由时间戳和uuid组成，避免碰撞；超过大小上限或扩展名不合法时拒绝。
func (s *PhotoStore) Save(filename string, size int64, r io.Reader) (string, error) {
	if !Allowed(filename) {
		return "", ErrInvalidPhotoType
	}
	if size > MaxPhotoSize {
		return "", ErrPhotoTooLarge
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	name := fmt.Sprintf("%s_%s.%s", time.Now().UTC().Format("20060102150405"), uuid.New().String()[:8], ext)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// 读取时再次限制大小，防止声明的size与实际不符
	written, err := io.Copy(dst, io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	if written > MaxPhotoSize {
		os.Remove(dst.Name())
		return "", ErrPhotoTooLarge
	}

	return name, nil
}

// Remove 尽力删除照片文件，文件不存在时不报错
func (s *PhotoStore) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(name))); err != nil && !os.IsNotExist(err) {
		log.Printf("删除照片文件失败: %v", err)
	}
}

// Clear 删除存储目录下的所有文件（purge时调用）
func (s *PhotoStore) Clear() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("读取上传目录失败: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			log.Printf("删除照片文件失败: %v", err)
		}
	}
}

// Usage 统计照片文件数量和总字节数
func (s *PhotoStore) Usage() (count int64, totalBytes int64) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		totalBytes += info.Size()
	}
	return count, totalBytes
}
