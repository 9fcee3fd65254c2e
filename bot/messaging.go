package bot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/sl"
)

// PaymentInstructions sends the QRIS image with the instructions as caption.
// Without a usable image, or with a caption too long for a photo, the text
// goes as a separate message.
func (t *TgBot) PaymentInstructions(chatId int64, user *entity.User) error {
	text := instructionsText(t.config.Payment, user)

	sent, err := t.sendQris(chatId, text)
	if err != nil {
		t.log.With(
			slog.Int64("id", chatId),
			slog.String("image", t.config.Payment.QrisImage),
		).Warn("sending qris image", sl.Err(err))
	}
	if sent {
		return nil
	}
	return t.send(chatId, text, nil)
}

// sendQris reports whether the caption went out together with the image.
func (t *TgBot) sendQris(chatId int64, caption string) (bool, error) {
	path := t.config.Payment.QrisImage
	if path == "" {
		return false, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	opts := &tgbotapi.SendPhotoOpts{}
	withCaption := len(caption) <= maxCaptionLen
	if withCaption {
		opts.Caption = caption
		opts.ParseMode = "MarkdownV2"
	}
	_, err = t.api.SendPhoto(chatId, tgbotapi.InputFileByReader(filepath.Base(path), file), opts)
	if err != nil {
		return false, err
	}
	return withCaption, nil
}

// PostProof forwards a payment proof with the decision buttons.
func (t *TgBot) PostProof(chatId int64, payment *entity.PendingPayment) error {
	_, err := t.api.SendPhoto(chatId, tgbotapi.InputFileByID(payment.PhotoFileId), &tgbotapi.SendPhotoOpts{
		Caption:     proofCaption(payment),
		ReplyMarkup: buildDecisionKeyboard(payment.PaymentId),
	})
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (t *TgBot) PaymentApproved(payment *entity.PendingPayment) error {
	return t.send(participantChat(payment), approvedText(payment), nil)
}

func (t *TgBot) PaymentRejected(payment *entity.PendingPayment) error {
	return t.send(participantChat(payment), rejectedText(), nil)
}

func participantChat(p *entity.PendingPayment) int64 {
	if p.ChatId != 0 {
		return p.ChatId
	}
	return p.UserId
}
