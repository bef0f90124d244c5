package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/linkgrab/internal/models"
)

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.yaml")

	t.Run("首次写入", func(t *testing.T) {
		if err := WriteTemplate(path, false); err != nil {
			t.Fatalf("WriteTemplate() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("读取配置失败: %v", err)
		}
		if !strings.Contains(string(data), "window_hours: 36") {
			t.Error("模板应包含默认时间窗口")
		}
	})

	t.Run("已存在时不覆盖", func(t *testing.T) {
		err := WriteTemplate(path, false)
		var cfgErr *models.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("期望 ConfigError, 得到 %v", err)
		}
	})

	t.Run("强制覆盖", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("x: 1"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := WriteTemplate(path, true); err != nil {
			t.Fatalf("WriteTemplate(force) error = %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != Template() {
			t.Error("强制覆盖后内容应与模板一致")
		}
	})
}

func TestValidateFileSize(t *testing.T) {
	dir := t.TempDir()

	small := filepath.Join(dir, "small.yaml")
	if err := os.WriteFile(small, []byte("verify:\n  workers: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateFileSize(small); err != nil {
		t.Errorf("小文件不应报错: %v", err)
	}

	large := filepath.Join(dir, "large.yaml")
	if err := os.WriteFile(large, make([]byte, MaxConfigFileSize+1), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateFileSize(large); err == nil {
		t.Error("超过大小限制应返回错误")
	}

	if err := ValidateFileSize(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("文件不存在应返回错误")
	}
}
