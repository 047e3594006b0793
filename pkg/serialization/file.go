package serialization

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization/compressor"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
	"github.com/lk2023060901/xmlserial-go/pkg/util/retry"
)

const (
	defaultIOAttempts = 3
	defaultIOSleep    = 20 * time.Millisecond
)

// SaveFile 将 object 序列化后写入 path。以 ".zst" 结尾的路径会先用 zstd 压缩。
// 写入先落到同目录的临时文件，成功后再重命名，失败时不会留下半截文档。
func (s *Serializer) SaveFile(path, rootName string, object any) error {
	data, err := s.Marshal(rootName, object)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ArchiveSuffix) {
		c, err := s.getCompressor()
		if err != nil {
			return err
		}
		if data, err = c.Compress(nil, data); err != nil {
			return merr.WrapErrIoFailed(path, err)
		}
	}

	err = s.withIORetry(func() error {
		return writeFileAtomic(path, data)
	})
	return merr.WrapErrIoFailed(path, err)
}

// LoadFile 读取 path 并重建对象。带 zstd 帧头的文件会先解压，与后缀无关。
func (s *Serializer) LoadFile(path string) (any, error) {
	var data []byte
	err := s.withIORetry(func() error {
		var rerr error
		data, rerr = os.ReadFile(path)
		return rerr
	})
	if err != nil {
		return nil, merr.WrapErrIoFailed(path, err)
	}

	if compressor.IsZstdFrame(data) {
		zc, err := s.getZstd()
		if err != nil {
			return nil, err
		}
		if data, err = zc.Decompress(nil, data); err != nil {
			return nil, err
		}
	}
	return s.Unmarshal(data)
}

func (s *Serializer) withIORetry(fn func() error) error {
	attempts := s.ioAttempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(context.Background(), fn,
		retry.Attempts(attempts),
		retry.Sleep(s.ioSleep),
		retry.RetryErr(isTransientIOError),
		retry.WithLogger(s.Logger()))
}

// isTransientIOError 排除重试也无法恢复的文件系统错误。
func isTransientIOError(err error) bool {
	return !errors.IsAny(err, fs.ErrNotExist, fs.ErrPermission, fs.ErrExist, fs.ErrInvalid)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
