package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// qr returns a PNG QR code for ?text=, defaulting to the server's public
// URL so a phone can open the preview.
func (s *Server) qr(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		text = s.PublicURL
	}
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to encode"})
		return
	}
	size := 256
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 2048 {
		size = v
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// TerminalQR renders url as a QR code of block characters, inverted for
// dark terminals.
func TerminalQR(url string) (string, error) {
	q, err := qrcode.New(url, qrcode.Low)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, row := range q.Bitmap() {
		for _, dark := range row {
			if dark {
				b.WriteString("  ")
			} else {
				b.WriteString("\u2588\u2588")
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
