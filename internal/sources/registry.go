package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/RecoveryAshes/linkgrab/internal/models"
)

// LoadRegistry 读取频道登记表文件
// 文件为JSON对象 {"可读名称": "频道标识", ...}, 保留键的书写顺序
func LoadRegistry(path string) (models.ChannelRegistry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开频道登记表失败: %w", err)
	}
	defer file.Close()

	registry, err := ParseRegistry(file)
	if err != nil {
		return nil, fmt.Errorf("解析频道登记表失败 [%s]: %w", path, err)
	}
	return registry, nil
}

// ParseRegistry 解析频道登记表
// 标识可以是字符串(@username)或数字ID; 重复的名称以最后一次的值为准, 位置不变
func ParseRegistry(r io.Reader) (models.ChannelRegistry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("频道登记表必须是JSON对象")
	}

	var registry models.ChannelRegistry
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		id, err := channelID(value)
		if err != nil {
			return nil, fmt.Errorf("频道 [%s]: %w", name, err)
		}

		if i, exists := index[name]; exists {
			registry[i].ID = id
			continue
		}
		index[name] = len(registry)
		registry = append(registry, models.ChannelEntry{Name: name, ID: id})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return registry, nil
}

func channelID(value any) (string, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", errors.New("频道标识不能为空")
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("频道标识必须是字符串或数字, 得到 %T", value)
	}
}
