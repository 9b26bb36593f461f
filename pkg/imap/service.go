package imap

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	convdomain "hrflow-backend/internal/conversation/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Service is the IMAP/SMTP mail transport for deployments without Gmail
// OAuth. Message-Id headers stand in for transport message ids; IMAP has no
// thread ids, so ThreadID is left empty.
type Service struct {
	imapHost   string // host:port, implicit TLS
	smtpHost   string // host:port
	username   string
	password   string
	senderName string
	senderAddr string
}

func NewService(imapHost, smtpHost, username, password, senderName, senderAddr string) *Service {
	return &Service{
		imapHost:   imapHost,
		smtpHost:   smtpHost,
		username:   username,
		password:   password,
		senderName: senderName,
		senderAddr: senderAddr,
	}
}

func (s *Service) connect() (*client.Client, error) {
	c, err := client.DialTLS(s.imapHost, nil)
	if err != nil {
		return nil, fmt.Errorf("imap dial failed: %w", err)
	}
	if err := c.Login(s.username, s.password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}
	return c, nil
}

// FetchUnreadFrom returns unseen inbox messages from the given sender.
func (s *Service) FetchUnreadFrom(ctx context.Context, sender string, limit int) ([]convdomain.InboundEmail, error) {
	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("imap select failed: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("From", sender)

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	ids = lastN(ids, limit)

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	var emails []convdomain.InboundEmail
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		email, err := parseMessage(body, msg.Envelope)
		if err != nil {
			continue
		}
		emails = append(emails, email)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch failed: %w", err)
	}
	return emails, nil
}

// lastN keeps the newest n sequence ids; n <= 0 means no cap.
func lastN(ids []uint32, n int) []uint32 {
	if n > 0 && len(ids) > n {
		return ids[len(ids)-n:]
	}
	return ids
}

func parseMessage(r io.Reader, env *imap.Envelope) (convdomain.InboundEmail, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return convdomain.InboundEmail{}, err
	}

	var plain, html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return convdomain.InboundEmail{}, err
		}
		if h, ok := p.Header.(*gomail.InlineHeader); ok {
			ctype, _, _ := h.ContentType()
			data, _ := io.ReadAll(p.Body)
			switch ctype {
			case "text/plain":
				if plain == "" {
					plain = string(data)
				}
			case "text/html":
				if html == "" {
					html = string(data)
				}
			}
		}
	}

	body := strings.TrimSpace(plain)
	if body == "" {
		body = strings.TrimSpace(html)
	}

	email := convdomain.InboundEmail{Body: body}
	if env != nil {
		email.ID = strings.Trim(env.MessageId, "<>")
		email.Subject = env.Subject
		email.Date = env.Date.UTC()
		if len(env.From) > 0 {
			email.From = env.From[0].Address()
		}
	}
	if email.ID == "" {
		return convdomain.InboundEmail{}, fmt.Errorf("message without Message-Id")
	}
	return email, nil
}

// MarkRead flags the message with the given Message-Id as seen.
func (s *Service) MarkRead(ctx context.Context, messageID string) error {
	c, err := s.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("imap select failed: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-Id", "<"+messageID+">")
	ids, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("imap search failed: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	return c.Store(seqset, item, []interface{}{imap.SeenFlag}, nil)
}

// SendHTML sends via SMTP. The generated Message-Id is returned so callers
// can log the outbound message under a stable transport id.
func (s *Service) SendHTML(ctx context.Context, out convdomain.OutboundEmail) (convdomain.SendResult, error) {
	messageID := fmt.Sprintf("%s@%s", uuid.New().String(), strings.Split(s.smtpHost, ":")[0])

	var msg bytes.Buffer
	boundary := "hrflow_mail_boundary"

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.senderName, s.senderAddr))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", out.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", out.Subject))
	msg.WriteString(fmt.Sprintf("Message-Id: <%s>\r\n", messageID))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", boundary))

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(out.HTMLBody)
	msg.WriteString("\r\n")

	if out.AttachmentPath != "" {
		if err := writeAttachment(&msg, boundary, out.AttachmentPath); err != nil {
			return convdomain.SendResult{}, err
		}
	}
	msg.WriteString(fmt.Sprintf("--%s--", boundary))

	auth := smtp.PlainAuth("", s.username, s.password, strings.Split(s.smtpHost, ":")[0])
	if err := smtp.SendMail(s.smtpHost, auth, s.senderAddr, []string{out.To}, msg.Bytes()); err != nil {
		return convdomain.SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}
	return convdomain.SendResult{MessageID: messageID}, nil
}

func writeAttachment(msg *bytes.Buffer, boundary, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open attachment: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("unable to read attachment: %w", err)
	}

	filename := filepath.Base(path)
	ctype := mime.TypeByExtension(filepath.Ext(filename))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", ctype, filename))
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n\r\n", filename))
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		msg.WriteString(encoded[i:end] + "\r\n")
	}
	return nil
}
