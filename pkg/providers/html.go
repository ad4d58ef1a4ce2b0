package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// HTMLExtractor pulls visible text out of saved web pages (.html, .mhtml).
// Saved pages already carry their text, so no OCR round trip is needed.
type HTMLExtractor struct {
	name string
}

var _ interfaces.Extractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor creates a new HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{name: "html"}
}

// Extract extracts text from HTML/MHTML files
func (e *HTMLExtractor) Extract(ctx context.Context, inputFile string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", utils.NewTimeoutError("extraction cancelled", err)
	}

	content, err := os.ReadFile(inputFile)
	if err != nil {
		return "", utils.WrapError(err, "", "failed to read page")
	}

	body, contentType := content, "text/html"
	if isMHTML(inputFile, content) {
		body, contentType, err = htmlPartFromMHTML(content)
		if err != nil {
			return "", err
		}
	}

	return ExtractText(body, contentType)
}

// SupportsFile checks if this extractor supports the given file type
func (e *HTMLExtractor) SupportsFile(fileInfo *types.FileInfo) bool {
	return utils.IsPageFile(fileInfo.Extension)
}

// Name returns the name of the extractor
func (e *HTMLExtractor) Name() string {
	return e.name
}

// ExtractText converts an HTML document to plain text. contentType may carry
// a charset parameter; otherwise the encoding is sniffed from the document.
func ExtractText(document []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(document), contentType)
	if err != nil {
		return "", utils.NewUnsupportedError("unknown page encoding", err)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return "", utils.NewError(utils.ErrorTypeProtocol, "failed to parse HTML", err)
	}

	var sb strings.Builder
	walk(doc, &sb, false)
	return cleanup(sb.String()), nil
}

// walk appends the visible text under node. Source line breaks are
// layout only, except inside <pre>.
func walk(node *html.Node, sb *strings.Builder, pre bool) {
	switch node.Type {
	case html.ElementNode:
		switch node.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Svg:
			return
		case atom.Br:
			sb.WriteString("\n")
			return
		}
		if blockElements[node.DataAtom] {
			sb.WriteString("\n")
		}
		if node.DataAtom == atom.Pre {
			pre = true
		}
	case html.TextNode:
		if pre {
			sb.WriteString(node.Data)
		} else {
			sb.WriteString(sourceBreaks.Replace(node.Data))
		}
	case html.CommentNode:
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, sb, pre)
	}

	if node.Type == html.ElementNode && blockElements[node.DataAtom] {
		sb.WriteString("\n")
	}
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true,
	atom.Main: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Blockquote: true,
	atom.Pre: true, atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Table: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Form: true,
	atom.Fieldset: true, atom.Address: true, atom.Figcaption: true, atom.Hr: true,
}

var sourceBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	spaceAroundEOL  = regexp.MustCompile(` *\n *`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// cleanup collapses whitespace while keeping paragraph breaks
func cleanup(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceAroundEOL.ReplaceAllString(text, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// isMHTML checks the extension first and falls back to sniffing a MIME header
func isMHTML(path string, content []byte) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".mhtml") || strings.HasSuffix(lower, ".mht") {
		return true
	}
	head := bytes.ToLower(content[:min(len(content), 1024)])
	return bytes.Contains(head, []byte("mime-version:")) && bytes.Contains(head, []byte("multipart/related"))
}

// htmlPartFromMHTML returns the first text/html part of an MHTML archive, decoded
func htmlPartFromMHTML(content []byte) ([]byte, string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return nil, "", utils.NewError(utils.ErrorTypeProtocol, "malformed MHTML header", err)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", utils.NewError(utils.ErrorTypeProtocol, "malformed MHTML content type", err)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		body, err := decodeTransfer(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		return body, msg.Header.Get("Content-Type"), err
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", utils.NewError(utils.ErrorTypeProtocol, "malformed MHTML part", err)
		}

		partType := part.Header.Get("Content-Type")
		if pt, _, _ := mime.ParseMediaType(partType); pt != "text/html" {
			continue
		}
		body, err := decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding"))
		return body, partType, err
	}

	return nil, "", utils.NewUnsupportedError("MHTML archive has no text/html part", nil)
}

func decodeTransfer(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, utils.NewIOError(fmt.Sprintf("cannot decode %s body", encoding), err)
	}
	return data, nil
}
