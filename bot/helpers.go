package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/iyann1255/daftaren/lib/sl"
)

const maxTelegramMessageLen = 4096

// send delivers a MarkdownV2 message, retrying as plain text when Telegram
// rejects the markup.
func (t *TgBot) send(chatId int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if text == "" {
		return fmt.Errorf("empty message")
	}
	opts := &tgbotapi.SendMessageOpts{ParseMode: "MarkdownV2"}
	if keyboard != nil {
		opts.ReplyMarkup = *keyboard
	}
	_, err := t.api.SendMessage(chatId, text, opts)
	if err == nil {
		return nil
	}
	t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))

	opts.ParseMode = ""
	_, err = t.api.SendMessage(chatId, unescape(text), opts)
	return err
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}
	if err := t.send(chatId, text, nil); err != nil {
		t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
	}
}

// sendWithKeyboard sends a message with an inline keyboard attached.
func (t *TgBot) sendWithKeyboard(chatId int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if err := t.send(chatId, text, &keyboard); err != nil {
		t.log.With(slog.Int64("id", chatId)).Error("sending message with keyboard", sl.Err(err))
	}
}

// Sanitize escapes the MarkdownV2 reserved characters.
func Sanitize(input string) string {
	reservedChars := "\\_*[]()~`>#+-=|{}.!"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}

// unescape turns a MarkdownV2 text back into readable plain text.
func unescape(input string) string {
	var sb strings.Builder
	escaped := false
	for _, char := range input {
		if char == '\\' && !escaped {
			escaped = true
			continue
		}
		if !escaped && (char == '*' || char == '_' || char == '`') {
			continue
		}
		escaped = false
		sb.WriteRune(char)
	}
	return sb.String()
}

// NotifyAdmins sends a plain text message to every admin. Used by the log
// handler, so it never logs failures above debug.
func (t *TgBot) NotifyAdmins(msg string) {
	for _, id := range t.config.AdminIds {
		for _, part := range splitMessage(msg, maxTelegramMessageLen) {
			if _, err := t.api.SendMessage(id, part, &tgbotapi.SendMessageOpts{}); err != nil {
				t.log.With(slog.Int64("id", id)).Debug("notifying admin", sl.Err(err))
				break
			}
		}
	}
}

func (t *TgBot) notifyAdmins(msg string) {
	for _, id := range t.config.AdminIds {
		t.plainResponse(id, msg)
	}
}

func (t *TgBot) requireAdmin(chatId int64) bool {
	if t.core.IsAdmin(chatId) {
		return true
	}
	t.plainResponse(chatId, "Perintah ini khusus admin\\.")
	return false
}

func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Try to split at newline
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

func displayName(username string, id int64) string {
	if username != "" {
		return fmt.Sprintf("@%s (%d)", username, id)
	}
	return fmt.Sprintf("%d", id)
}

// largestPhoto picks the size with the most pixels, then the biggest file.
func largestPhoto(sizes []tgbotapi.PhotoSize) (tgbotapi.PhotoSize, bool) {
	if len(sizes) == 0 {
		return tgbotapi.PhotoSize{}, false
	}
	best := sizes[0]
	for _, size := range sizes[1:] {
		area, bestArea := size.Width*size.Height, best.Width*best.Height
		if area > bestArea || (area == bestArea && size.FileSize > best.FileSize) {
			best = size
		}
	}
	return best, true
}

// reportError logs the error, notifies admins with details, and sends a neutral message to the user.
func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("user_id", chatId),
		sl.Err(err),
	)
	t.notifyAdmins(fmt.Sprintf(
		"Command `%s` failed\nUser: `%d`\nError: `%s`",
		Sanitize(command), chatId, Sanitize(err.Error()),
	))
	t.plainResponse(chatId, "Terjadi kesalahan\\. Coba lagi nanti\\.")
}
