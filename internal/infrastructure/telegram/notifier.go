package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FootballNews/internal/domain"
	"FootballNews/internal/ports"
)

const (
	defaultAPIURL   = "https://api.telegram.org"
	captionLimit    = 1024
	messageLimit    = 4096
	sendPhotoMethod = "sendPhoto"
	sendTextMethod  = "sendMessage"
)

// Notifier sends articles to a Telegram chat via bot API.
type Notifier struct {
	apiURL   string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. An empty apiURL means
// the public Bot API.
func NewNotifier(apiURL, botToken, chatID string) *Notifier {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Notifier{
		apiURL:   apiURL,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// PublishArticle posts the article as a photo with caption when it has an
// image, falling back to a plain text message.
func (n *Notifier) PublishArticle(ctx context.Context, article domain.ArticleRecord) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	if article.ImageURL != "" {
		form := url.Values{}
		form.Set("photo", article.ImageURL)
		form.Set("caption", FormatArticle(article, captionLimit))
		form.Set("parse_mode", "HTML")
		err := n.call(ctx, sendPhotoMethod, form)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}

	form := url.Values{}
	form.Set("text", FormatArticle(article, messageLimit))
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "false")
	return n.call(ctx, sendTextMethod, form)
}

func (n *Notifier) call(ctx context.Context, method string, form url.Values) error {
	form.Set("chat_id", n.chatID)
	endpoint := fmt.Sprintf("%s/bot%s/%s", n.apiURL, n.botToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram %s error %s: %s", method, resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}

// FormatArticle renders the HTML message body: bold title, summary and a
// link, shortened so the whole text fits into limit runes.
func FormatArticle(article domain.ArticleRecord, limit int) string {
	title := "<b>" + html.EscapeString(strings.TrimSpace(article.Title)) + "</b>"
	link := ""
	if article.URL != "" {
		link = fmt.Sprintf("\n\n<a href=\"%s\">Джерело</a>", html.EscapeString(article.URL))
	}

	body := strings.TrimSpace(article.Summary)
	if body == "" {
		body = strings.TrimSpace(article.Content)
	}

	room := limit - len([]rune(title)) - len([]rune(link)) - 2
	if body == "" || room <= 1 {
		return title + link
	}
	runes := []rune(body)
	if len(runes) > room {
		body = strings.TrimSpace(string(runes[:room-1])) + "…"
	}
	// escaping may grow the text, so trim once more on the escaped form
	escaped := html.EscapeString(body)
	for len([]rune(escaped)) > room && len([]rune(body)) > 1 {
		r := []rune(body)
		body = strings.TrimSpace(string(r[:len(r)-2])) + "…"
		escaped = html.EscapeString(body)
	}
	return title + "\n\n" + escaped + link
}
