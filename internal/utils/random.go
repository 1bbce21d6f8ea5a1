package utils

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxOriginalNameLen = 64

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func RandomString(length int) string {
	bytes := make([]byte, (length+1)/2)
	_, err := rand.Read(bytes)
	if err != nil {
		panic(err) // crypto/rand only fails if the OS entropy source is broken
	}
	return hex.EncodeToString(bytes)[:length]
}

// UploadFileName builds "<unix-millis>-<random>-<original>" with the original
// name reduced to a safe base name.
func UploadFileName(now time.Time, original string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + RandomString(10) + "-" + SanitizeFileName(original)
}

// SanitizeFileName strips directories and anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeFileChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	if len(base) > maxOriginalNameLen {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:maxOriginalNameLen-len(ext)] + ext
	}
	return base
}
