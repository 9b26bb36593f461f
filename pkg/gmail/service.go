package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	convdomain "hrflow-backend/internal/conversation/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Service is the Gmail-backed mail transport. One OAuth identity (the HR
// mailbox) sends and receives everything.
type Service struct {
	clientID     string
	clientSecret string
	accessToken  string
	refreshToken string
	senderName   string
	senderEmail  string
}

func NewService(clientID, clientSecret, accessToken, refreshToken, senderName, senderEmail string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		senderName:   senderName,
		senderEmail:  senderEmail,
	}
}

func (s *Service) gmailService(ctx context.Context) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		TokenType:    "Bearer",
	}
	// Force a refresh when we hold a refresh token so a stale access token
	// never poisons the whole run.
	if s.refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	client := oauth2.NewClient(ctx, config.TokenSource(ctx, token))
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// FetchUnreadFrom returns unread inbox messages from the given sender,
// transport order, bodies decoded to plain text.
func (s *Service) FetchUnreadFrom(ctx context.Context, sender string, limit int) ([]convdomain.InboundEmail, error) {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return nil, err
	}

	user := "me"
	q := fmt.Sprintf("from:%s is:unread in:inbox", sender)

	listResp, err := srv.Users.Messages.List(user).Q(q).MaxResults(int64(limit)).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %v", err)
	}

	emails := make([]convdomain.InboundEmail, 0, len(listResp.Messages))
	for _, m := range listResp.Messages {
		full, err := srv.Users.Messages.Get(user, m.Id).Format("full").Do()
		if err != nil {
			return nil, fmt.Errorf("unable to fetch message %s: %v", m.Id, err)
		}

		emails = append(emails, convdomain.InboundEmail{
			ID:       full.Id,
			ThreadID: full.ThreadId,
			From:     getHeader(full.Payload.Headers, "From"),
			Subject:  getHeader(full.Payload.Headers, "Subject"),
			Body:     extractPlainBody(full.Payload),
			Date:     time.Unix(full.InternalDate/1000, 0).UTC(),
		})
	}
	return emails, nil
}

// MarkRead removes the UNREAD label.
func (s *Service) MarkRead(ctx context.Context, messageID string) error {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return err
	}

	modifyReq := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}
	if _, err := srv.Users.Messages.Modify("me", messageID, modifyReq).Do(); err != nil {
		return fmt.Errorf("unable to mark message as read: %v", err)
	}
	return nil
}

// SendHTML sends an HTML email, optionally with an attachment and within an
// existing thread, and returns the transport ids of the sent message.
func (s *Service) SendHTML(ctx context.Context, out convdomain.OutboundEmail) (convdomain.SendResult, error) {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return convdomain.SendResult{}, err
	}

	var emailMsg bytes.Buffer
	boundary := "hrflow_mail_boundary"

	if s.senderName != "" && s.senderEmail != "" {
		encodedName := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(s.senderName)))
		emailMsg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", encodedName, s.senderEmail))
	}
	emailMsg.WriteString(fmt.Sprintf("To: %s\r\n", out.To))
	// Encode subject to handle non-ASCII characters (RFC 2047)
	encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(out.Subject)))
	emailMsg.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))
	emailMsg.WriteString("MIME-Version: 1.0\r\n")
	emailMsg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", boundary))

	emailMsg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	emailMsg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	emailMsg.WriteString(out.HTMLBody)
	emailMsg.WriteString("\r\n")

	if out.AttachmentPath != "" {
		if err := writeAttachment(&emailMsg, boundary, out.AttachmentPath); err != nil {
			return convdomain.SendResult{}, err
		}
	}

	emailMsg.WriteString(fmt.Sprintf("--%s--", boundary))

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(emailMsg.Bytes()),
	}
	if out.ThreadID != "" {
		msg.ThreadId = out.ThreadID
	}

	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return convdomain.SendResult{}, fmt.Errorf("unable to send message: %v", err)
	}
	return convdomain.SendResult{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}

func writeAttachment(emailMsg *bytes.Buffer, boundary, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open attachment: %v", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("unable to read attachment: %v", err)
	}

	filename := filepath.Base(path)
	ctype := mime.TypeByExtension(filepath.Ext(filename))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	encodedContent := base64.StdEncoding.EncodeToString(content)

	emailMsg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	emailMsg.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", ctype, filename))
	emailMsg.WriteString("Content-Transfer-Encoding: base64\r\n")
	emailMsg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n\r\n", filename))

	// Split base64 into lines of 76 characters
	for i := 0; i < len(encodedContent); i += 76 {
		end := i + 76
		if end > len(encodedContent) {
			end = len(encodedContent)
		}
		emailMsg.WriteString(encodedContent[i:end] + "\r\n")
	}
	return nil
}

// Helper functions

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// extractPlainBody prefers text/plain, falls back to stripped text/html,
// then to the top-level body.
func extractPlainBody(payload *gmail.MessagePart) string {
	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/plain":
						if plainBody == "" {
							plainBody = string(data)
						}
					case "text/html":
						if htmlBody == "" {
							htmlBody = string(data)
						}
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	if plainBody == "" && htmlBody == "" && payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			if payload.MimeType == "text/html" {
				htmlBody = string(data)
			} else {
				plainBody = string(data)
			}
		}
	}

	if plainBody != "" {
		return strings.TrimSpace(plainBody)
	}
	stripped := tagRe.ReplaceAllString(htmlBody, " ")
	stripped = strings.ReplaceAll(stripped, "&nbsp;", " ")
	stripped = strings.ReplaceAll(stripped, "&amp;", "&")
	stripped = strings.ReplaceAll(stripped, "&lt;", "<")
	stripped = strings.ReplaceAll(stripped, "&gt;", ">")
	return strings.TrimSpace(strings.Join(strings.Fields(stripped), " "))
}
