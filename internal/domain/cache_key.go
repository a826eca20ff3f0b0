package domain

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// CacheKey 缓存键：${user}-${project1}-${project2} 的 xxhash64 (十六进制)，保留大小写
func CacheKey(user, project1, project2 string) string {
	return strconv.FormatUint(xxhash.Sum64String(user+"-"+project1+"-"+project2), 16)
}
