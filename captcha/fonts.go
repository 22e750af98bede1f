package captcha

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
)

// FontLoader resolves font paths to parsed fonts, falling back to a
// bundled face when the configured file is missing or unreadable.
// Parsed fonts are cached by path.
type FontLoader struct {
	fallback []byte
	log      *zap.Logger

	mu    sync.Mutex
	cache map[string]*truetype.Font
}

const bundledKey = "<bundled>"

// NewFontLoader returns a loader whose fallback is the Go Regular font.
func NewFontLoader(log *zap.Logger) *FontLoader {
	return NewFontLoaderWithFallback(goregular.TTF, log)
}

// NewFontLoaderWithFallback uses the given TTF bytes as fallback. A nil
// fallback disables it.
func NewFontLoaderWithFallback(fallback []byte, log *zap.Logger) *FontLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &FontLoader{
		fallback: fallback,
		log:      log,
		cache:    make(map[string]*truetype.Font),
	}
}

// Load returns the font at path, or the bundled font when path is empty,
// absent on disk or not a valid TrueType file.
func (l *FontLoader) Load(path string) (*truetype.Font, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if path != "" {
		if f, ok := l.cache[path]; ok {
			return f, nil
		}
		f, err := parseFile(path)
		if err == nil {
			l.cache[path] = f
			return f, nil
		}
		l.log.Warn("captcha font unusable, using bundled font", zap.String("path", path), zap.Error(err))
	}

	if f, ok := l.cache[bundledKey]; ok {
		return f, nil
	}
	if len(l.fallback) == 0 {
		return nil, fmt.Errorf("%w: %q not found and no bundled font", ErrAsset, path)
	}
	f, err := truetype.Parse(l.fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: bundled font: %v", ErrAsset, err)
	}
	l.cache[bundledKey] = f
	return f, nil
}

func parseFile(path string) (*truetype.Font, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(data)
}
