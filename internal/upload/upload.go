package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix é onde a raiz de storage fica montada no mux.
const PublicPrefix = "/storage/"

type Config struct {
	AllowedMIME []string
	AllowedExt  []string
	MaxSize     int64
	// Subdiretório dentro da raiz de storage; também aparece na URL.
	Directory string
}

var (
	AvatarConfig = Config{
		AllowedMIME: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		AllowedExt:  []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
		MaxSize:     5 * 1024 * 1024, // 5MB
		Directory:   "avatars",
	}

	CoverConfig = Config{
		AllowedMIME: []string{"image/jpeg", "image/png", "image/webp"},
		AllowedExt:  []string{".jpg", ".jpeg", ".png", ".webp"},
		MaxSize:     10 * 1024 * 1024, // 10MB
		Directory:   "covers",
	}
)

// Result descreve o arquivo gravado. URL é o caminho público sob
// PublicPrefix; Path é onde ele mora no disco.
type Result struct {
	URL      string
	Path     string
	Filename string
	MIMEType string
	Size     int64
}

// UploadError é falha de validação atribuível ao cliente; qualquer outro
// erro de SaveFile é problema do servidor.
type UploadError struct {
	Code    string
	Message string
}

func (e *UploadError) Error() string { return e.Code + ": " + e.Message }

func IsUploadError(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}

func failf(code, format string, args ...any) *UploadError {
	return &UploadError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// SaveFile valida e grava o arquivo do form em root/cfg.Directory. O tipo
// é decidido pelos primeiros bytes do conteúdo, não pelo Content-Type que
// o cliente declarou. A URL retornada assume a raiz montada em
// PublicPrefix.
func SaveFile(r *http.Request, fieldName, root string, cfg Config) (*Result, error) {
	file, header, err := r.FormFile(fieldName)
	if err != nil {
		return nil, failf("NO_FILE", "Nenhum arquivo enviado")
	}
	defer file.Close()

	if header.Size > cfg.MaxSize {
		return nil, failf("FILE_TOO_LARGE", "Arquivo excede o limite de %dMB", cfg.MaxSize/1024/1024)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, failf("READ_ERROR", "Falha ao ler arquivo")
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !slices.Contains(cfg.AllowedMIME, contentType) {
		return nil, failf("INVALID_TYPE", "Tipo de arquivo não permitido: %s", contentType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(cfg.AllowedExt, ext) {
		return nil, failf("INVALID_EXTENSION", "Extensão não permitida: %s", ext)
	}

	dir := filepath.Join(root, cfg.Directory)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, failf("DIRECTORY_ERROR", "Falha ao criar diretório de upload")
	}

	filename := fmt.Sprintf("%d_%.8s%s", time.Now().Unix(), uuid.NewString(), ext)
	dstPath := filepath.Join(dir, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, failf("CREATE_ERROR", "Falha ao criar arquivo")
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		os.Remove(dstPath)
		return nil, failf("WRITE_ERROR", "Falha ao salvar arquivo")
	}

	return &Result{
		URL:      PublicPrefix + cfg.Directory + "/" + filename,
		Path:     dstPath,
		Filename: filename,
		MIMEType: contentType,
		Size:     written,
	}, nil
}

// Remove apaga do disco o arquivo por trás de uma URL pública. URLs fora
// de PublicPrefix são ignoradas.
func Remove(root, url string) error {
	rel, ok := strings.CutPrefix(url, PublicPrefix)
	if !ok {
		return nil
	}
	// Clean prende o caminho dentro de root.
	rel = filepath.Clean("/" + filepath.FromSlash(rel))
	return os.Remove(filepath.Join(root, rel))
}
