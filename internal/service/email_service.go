package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/model"
	"suggestbox_backend/pkg/logger"
	"suggestbox_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	// 연결뿐 아니라 인사말 수신, 인증, 전송까지 세션 전체에 적용되는 시한
	smtpSessionTimeout = 10 * time.Second

	answerMailSubject = "학생회에서 건의에 답변을 보냈어요"
)

const (
	emailOutcomeSent          = "sent"
	emailOutcomeSkippedConfig = "skipped_config"
	emailOutcomeFailed        = "failed"
)

const answerMailText = `안녕하세요.

학생회에서 건의에 답변을 보냈어요.

건의 제목: %s

답변 내용:
%s

답변 확인:
%s

위 링크를 열면 바로 '내 건의' 페이지에서 답변을 확인할 수 있습니다.`

var answerMailTemplate = template.Must(template.New("answerMail").Parse(`<!doctype html>
<html lang="ko">
  <body style="margin: 0; padding: 0; background: #f8fafc; color: #0f172a; font-family: 'Apple SD Gothic Neo', 'Malgun Gothic', Arial, sans-serif;">
    <div style="display: none; max-height: 0; overflow: hidden; opacity: 0;">
      학생회에서 건의에 답변을 보냈어요. 버튼을 눌러 바로 확인할 수 있어요.
    </div>
    <table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="background: #f8fafc; margin: 0; padding: 24px 0;">
      <tr>
        <td align="center">
          <table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="max-width: 640px; margin: 0 auto;">
            <tr>
              <td style="padding: 0 16px;">
                <table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="background: linear-gradient(135deg, #1e3a8a 0%, #1d4ed8 60%, #2563eb 100%); border-radius: 28px 28px 0 0;">
                  <tr>
                    <td style="padding: 28px;">
                      <table role="presentation" cellpadding="0" cellspacing="0" border="0">
                        <tr>
                          <td style="vertical-align: middle;">
                            <img src="{{.LogoURL}}" alt="학교 로고" width="56" height="56" style="display: block; width: 56px; height: 56px; border-radius: 16px; background: rgba(255,255,255,0.16); padding: 6px;" />
                          </td>
                          <td style="padding-left: 14px; vertical-align: middle; color: #ffffff;">
                            <div style="font-size: 14px; font-weight: 700; opacity: 0.92;">화홍고등학교 학생회</div>
                            <div style="font-size: 26px; font-weight: 800; line-height: 1.25; margin-top: 6px;">건의 답변이 도착했어요</div>
                          </td>
                        </tr>
                      </table>
                    </td>
                  </tr>
                </table>

                <table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="background: #ffffff; border-radius: 0 0 28px 28px; box-shadow: 0 18px 40px rgba(15, 23, 42, 0.08);">
                  <tr>
                    <td style="padding: 28px;">
                      <div style="font-size: 16px; line-height: 1.7; color: #334155;">
                        안녕하세요.<br />
                        학생회에서 남겨주신 건의에 답변을 보냈습니다.
                      </div>

                      <div style="margin-top: 22px; border-radius: 24px; background: #f8fafc; border: 1px solid #e2e8f0; padding: 20px;">
                        <div style="font-size: 12px; letter-spacing: 0.04em; font-weight: 800; color: #64748b; text-transform: uppercase;">건의 제목</div>
                        <div style="font-size: 22px; line-height: 1.4; font-weight: 800; color: #0f172a; margin-top: 10px;">{{.Title}}</div>
                      </div>

                      <div style="margin-top: 18px; border-radius: 24px; background: #eff6ff; border: 1px solid #bfdbfe; padding: 20px;">
                        <div style="font-size: 12px; letter-spacing: 0.04em; font-weight: 800; color: #1d4ed8; text-transform: uppercase;">학생회 답변</div>
                        <div style="font-size: 16px; line-height: 1.8; color: #1e293b; margin-top: 12px;">{{.Answer}}</div>
                      </div>

                      <div style="margin-top: 24px;">
                        <a href="{{.Link}}" style="display: inline-block; padding: 14px 22px; border-radius: 18px; background: #1d4ed8; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 800;">
                          답변 확인하러 가기
                        </a>
                      </div>

                      <div style="margin-top: 26px; padding-top: 18px; border-top: 1px solid #e2e8f0; font-size: 13px; line-height: 1.8; color: #64748b;">
                        버튼이 열리지 않으면 아래 주소를 복사해 열어 주세요.<br />
                        <a href="{{.Link}}" style="color: #1d4ed8; text-decoration: underline; word-break: break-all;">{{.Link}}</a>
                      </div>
                    </td>
                  </tr>
                </table>

                <div style="padding: 16px 20px 0 20px; text-align: center; font-size: 12px; line-height: 1.7; color: #94a3b8;">
                  화홍고등학교 학생회 학생 건의함
                </div>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`))

type answerMailData struct {
	Title   string
	Answer  template.HTML
	Link    string
	LogoURL string
}

// EmailService SMTP 발송기. 설정이 없으면 모든 발송을 건너뛴다(IsConfigured 가드).
type EmailService struct {
	mu            sync.RWMutex
	cfg           config.SMTPConfig
	publicBaseURL string
	origins       []string
	timeout       time.Duration
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		cfg:           cfg.SMTP,
		publicBaseURL: cfg.PublicBaseURL,
		origins:       cfg.CORS.AllowedOrigins,
		timeout:       smtpSessionTimeout,
	}
}

func (s *EmailService) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg.SMTP
	s.publicBaseURL = cfg.PublicBaseURL
	s.origins = cfg.CORS.AllowedOrigins
	s.mu.Unlock()
}

func (s *EmailService) config() config.SMTPConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// IsConfigured SMTP 호스트와 발신 주소가 모두 설정되어 있는지.
// 알림 메일 주소 등록을 받을지 결정할 때도 같은 가드를 쓴다.
func (s *EmailService) IsConfigured() bool {
	cfg := s.config()
	return cfg.Host != "" && cfg.FromEmail != ""
}

// Send 텍스트(+선택 HTML) 메일을 보낸다. 실패는 로그만 남기고 false.
func (s *EmailService) Send(to, subject, textBody, htmlBody, replyTo string) bool {
	if !s.IsConfigured() {
		logger.Log.Warn("SMTP is not configured, skipping email delivery")
		monitoring.EmailDeliveryCounter.WithLabelValues(emailOutcomeSkippedConfig).Inc()
		return false
	}

	msg := s.buildMessage(to, subject, textBody, htmlBody, replyTo)
	if err := s.transmit(to, msg); err != nil {
		logger.Log.Error("Failed to send email notification", zap.Error(err))
		monitoring.EmailDeliveryCounter.WithLabelValues(emailOutcomeFailed).Inc()
		return false
	}

	monitoring.EmailDeliveryCounter.WithLabelValues(emailOutcomeSent).Inc()
	return true
}

// SendAnswerNotification 답변 알림 메일을 구성해서 보낸다.
func (s *EmailService) SendAnswerNotification(sug *model.Suggestion) bool {
	if sug.NotificationEmail == nil || *sug.NotificationEmail == "" {
		return false
	}

	subject, textBody, htmlBody := s.composeAnswerMail(sug)

	cfg := s.config()
	replyTo := strings.TrimSpace(cfg.ReplyTo)
	if replyTo == "" {
		replyTo = cfg.FromEmail
	}

	return s.Send(*sug.NotificationEmail, subject, textBody, htmlBody, replyTo)
}

// composeAnswerMail 제목/텍스트/HTML 본문을 만든다. HTML 본문에서는 제목·답변이
// 이스케이프되고 답변의 줄바꿈은 <br /> 로 치환된다.
func (s *EmailService) composeAnswerMail(sug *model.Suggestion) (subject, textBody, htmlBody string) {
	base := s.publicBase()

	q := url.Values{}
	q.Set("sk", sug.StudentKey)
	q.Set("sid", strconv.Itoa(int(sug.ID)))
	link := base + "/me.html?" + q.Encode()
	logoURL := base + "/assets/logo.png"

	answer := ""
	if sug.Answer != nil {
		answer = *sug.Answer
	}

	textBody = fmt.Sprintf(answerMailText, sug.Title, answer, link)

	safeAnswer := strings.ReplaceAll(template.HTMLEscapeString(answer), "\n", "<br />")

	var buf bytes.Buffer
	if err := answerMailTemplate.Execute(&buf, answerMailData{
		Title:   sug.Title,
		Answer:  template.HTML(safeAnswer),
		Link:    link,
		LogoURL: logoURL,
	}); err != nil {
		logger.Log.Error("answer mail template render failed", zap.Error(err))
		return answerMailSubject, textBody, ""
	}

	return answerMailSubject, textBody, buf.String()
}

// publicBase 설정된 공개 URL → 첫 CORS origin → 로컬 기본값 순으로 결정한다.
func (s *EmailService) publicBase() string {
	s.mu.RLock()
	baseURL := strings.TrimSpace(s.publicBaseURL)
	origins := s.origins
	s.mu.RUnlock()

	if baseURL != "" {
		return strings.TrimRight(baseURL, "/")
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			return strings.TrimRight(origin, "/")
		}
	}
	return "http://localhost:8080"
}

func (s *EmailService) buildMessage(to, subject, textBody, htmlBody, replyTo string) []byte {
	cfg := s.config()

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", cfg.FromName), cfg.FromEmail)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(textBody)
		return b.Bytes()
	}

	mw := multipart.NewWriter(&b)
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	pw, _ := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	pw.Write([]byte(textBody))
	pw, _ = mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
	pw.Write([]byte(htmlBody))
	mw.Close()

	return b.Bytes()
}

// transmit SSL 직결(보통 465) 또는 평문 연결 후 STARTTLS(보통 587)로 전송한다.
// SSL이 우선이고, STARTTLS는 SSL이 아닐 때만 적용된다.
func (s *EmailService) transmit(to string, msg []byte) error {
	cfg := s.config()
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var conn net.Conn
	var err error
	if cfg.UseSSL {
		dialer := &net.Dialer{Timeout: s.timeout}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = net.DialTimeout("tcp", addr, s.timeout)
	}
	if err != nil {
		return err
	}

	// 인사말을 보내지 않는 서버가 세션을 붙들지 못하도록
	// 연결 이후의 모든 읽기/쓰기에도 같은 시한을 건다.
	conn.SetDeadline(time.Now().Add(s.timeout))

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if !cfg.UseSSL && cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return err
			}
		}
	}

	if cfg.Username != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(cfg.FromEmail); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
