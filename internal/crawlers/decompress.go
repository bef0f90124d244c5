package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// gzip魔数
var gzipMagic = []byte{0x1f, 0x8b}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli); 多重编码按逆序解开
// limit > 0 时解压结果最多保留limit字节
func decompressResponse(contentEncoding string, body []byte, limit int64) ([]byte, error) {
	encodings := strings.Split(contentEncoding, ",")
	for i := len(encodings) - 1; i >= 0; i-- {
		decoded, err := decodeOne(strings.ToLower(strings.TrimSpace(encodings[i])), body, limit)
		if err != nil {
			return nil, err
		}
		body = decoded
	}
	return body, nil
}

func decodeOne(encoding string, body []byte, limit int64) ([]byte, error) {
	var reader io.Reader

	switch encoding {
	case "gzip", "x-gzip":
		// colly会自动解开gzip但保留头部,此时不再重复解压
		if !bytes.HasPrefix(body, gzipMagic) {
			return body, nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer gz.Close()
		reader = gz

	case "deflate":
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		reader = fr

	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))

	default:
		// 无压缩、identity或未知编码,返回原始内容
		return body, nil
	}

	if limit > 0 {
		reader = io.LimitReader(reader, limit)
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s读取失败: %w", encoding, err)
	}
	return decompressed, nil
}
