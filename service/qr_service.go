package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// QRContentType selects how QR content is encoded
type QRContentType string

const (
	QRURL   QRContentType = "url"
	QRText  QRContentType = "text"
	QREmail QRContentType = "email"
	QRPhone QRContentType = "phone"
	QRWiFi  QRContentType = "wifi"
)

// maxQRContent keeps codes scannable once printed on fabric
const maxQRContent = 1000

// QRRequest describes a QR code to place on a garment
type QRRequest struct {
	Type    QRContentType `json:"type"`
	Value   string        `json:"value"` // url, text, email address or phone number
	Subject string        `json:"subject,omitempty"`
	Body    string        `json:"body,omitempty"`

	SSID       string `json:"ssid,omitempty"`
	Password   string `json:"password,omitempty"`
	Encryption string `json:"encryption,omitempty"` // WPA, WEP or nopass
	Hidden     bool   `json:"hidden,omitempty"`

	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
	// ModuleWidth is the pixel width of one QR block
	ModuleWidth int `json:"moduleWidth,omitempty"`
}

// QRServiceInterface defines the contract for QR code generation
type QRServiceInterface interface {
	GenerateQRCode(req *QRRequest) (string, error)
}

// QRService renders QR codes as PNG data URLs usable as design urls
type QRService struct{}

var _ QRServiceInterface = (*QRService)(nil)

func NewQRService() *QRService {
	return &QRService{}
}

var (
	emailRegex  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex  = regexp.MustCompile(`^\+?[0-9]{4,15}$`)
	rgbHexRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// FormatQRContent turns a request into the string encoded in the QR code
func FormatQRContent(req *QRRequest) (string, error) {
	value := strings.TrimSpace(req.Value)
	switch req.Type {
	case QRURL:
		if value == "" {
			return "", invalid("value", "url is required")
		}
		if !strings.Contains(value, "://") {
			value = "https://" + value
		}
		u, err := url.Parse(value)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return "", invalid("value", "must be an http or https url")
		}
		return u.String(), nil

	case QRText, "":
		return req.Value, nil

	case QREmail:
		if !emailRegex.MatchString(value) {
			return "", invalid("value", "must be an email address")
		}
		q := url.Values{}
		if req.Subject != "" {
			q.Set("subject", req.Subject)
		}
		if req.Body != "" {
			q.Set("body", req.Body)
		}
		content := "mailto:" + value
		if len(q) > 0 {
			content += "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
		}
		return content, nil

	case QRPhone:
		phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(value)
		if !phoneRegex.MatchString(phone) {
			return "", invalid("value", "must be a phone number")
		}
		return "tel:" + phone, nil

	case QRWiFi:
		if strings.TrimSpace(req.SSID) == "" {
			return "", invalid("ssid", "is required")
		}
		enc := strings.ToUpper(strings.TrimSpace(req.Encryption))
		switch enc {
		case "":
			enc = "WPA"
		case "WPA", "WEP":
		case "NOPASS":
			enc = "nopass"
		default:
			return "", invalid("encryption", "must be WPA, WEP or nopass")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "WIFI:T:%s;S:%s;", enc, escapeWiFi(req.SSID))
		if enc != "nopass" {
			fmt.Fprintf(&b, "P:%s;", escapeWiFi(req.Password))
		}
		if req.Hidden {
			b.WriteString("H:true;")
		}
		b.WriteString(";")
		return b.String(), nil
	}
	return "", invalid("type", "unsupported QR type %q", req.Type)
}

func escapeWiFi(s string) string {
	return strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`).Replace(s)
}

// ValidateQRContent checks encoded content before generation
func ValidateQRContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return invalid("value", "QR content is empty")
	}
	if len(content) > maxQRContent {
		return invalid("value", "QR content exceeds %d bytes", maxQRContent)
	}
	if !utf8.ValidString(content) {
		return invalid("value", "QR content is not valid UTF-8")
	}
	return nil
}

type bufferCloser struct {
	*bytes.Buffer
}

func (bufferCloser) Close() error { return nil }

// GenerateQRCode renders the request as a PNG data URL
func (s *QRService) GenerateQRCode(req *QRRequest) (string, error) {
	if req == nil {
		return "", invalid("body", "request body is required")
	}
	content, err := FormatQRContent(req)
	if err != nil {
		return "", err
	}
	if err := ValidateQRContent(content); err != nil {
		return "", err
	}

	fg, bg := req.Foreground, req.Background
	if fg == "" {
		fg = "#000000"
	}
	if bg == "" {
		bg = "#ffffff"
	}
	if !rgbHexRegex.MatchString(fg) || !rgbHexRegex.MatchString(bg) {
		return "", invalid("color", "foreground and background must be #rrggbb colors")
	}
	width := req.ModuleWidth
	if width <= 0 {
		width = 20
	}
	if width > 255 {
		width = 255
	}

	qrc, err := qrcode.NewWith(content, qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium))
	if err != nil {
		return "", fmt.Errorf("failed to encode QR content: %w", err)
	}

	buf := bufferCloser{Buffer: &bytes.Buffer{}}
	w := standard.NewWithWriter(buf,
		standard.WithQRWidth(uint8(width)),
		standard.WithFgColorRGBHex(fg),
		standard.WithBgColorRGBHex(bg),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	)
	if err := qrc.Save(w); err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}

	log.Printf("✓ QR code generated: type=%s, %d bytes", req.Type, buf.Len())
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
