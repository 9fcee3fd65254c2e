package bot

import (
	"errors"
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iyann1255/daftaren/impl/core"
	"github.com/iyann1255/daftaren/impl/registration"
	"github.com/iyann1255/daftaren/lib/sl"
)

// Callback data prefixes for inline keyboard buttons.
// Telegram limits callback data to 64 bytes, so prefixes are kept short.
// Format: prefix + value (e.g., "reg:ok", "pay:ok:1001_1790000000").
const (
	cbDecision = "pay:" // pay:ok:<payment_id>, pay:no:<payment_id>
)

// --- Keyboard builders ---

func buildConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{
				{Text: "✅ Benar, simpan", CallbackData: registration.ActionConfirm.Data()},
			},
			{
				{Text: "✏️ Ubah nama", CallbackData: registration.ActionEditName.Data()},
				{Text: "✏️ Ubah WA", CallbackData: registration.ActionEditContact.Data()},
			},
			{
				{Text: "✖️ Batal", CallbackData: registration.ActionCancel.Data()},
			},
		},
	}
}

func buildDecisionKeyboard(paymentId string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{
				{Text: "✅ Approve", CallbackData: core.Token(core.DecisionApprove, paymentId)},
				{Text: "❌ Reject", CallbackData: core.Token(core.DecisionReject, paymentId)},
			},
		},
	}
}

func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}

// --- Callback handlers ---

// onRegistrationCallback handles the confirmation screen buttons. The buttons
// are removed from the pressed message so an old screen cannot be reused.
func (t *TgBot) onRegistrationCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	action, ok := registration.ParseAction(cq.Data)
	if !ok {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Pilihan tidak dikenal"})
		return nil
	}

	if msg := cq.Message; msg != nil {
		if im, ok := msg.(tgbotapi.Message); ok {
			_, _, _ = t.api.EditMessageReplyMarkup(&tgbotapi.EditMessageReplyMarkupOpts{
				ChatId:      im.Chat.Id,
				MessageId:   im.MessageId,
				ReplyMarkup: emptyKeyboard(),
			})
		}
	}

	rctx, cancel := requestContext()
	defer cancel()

	reply, err := t.flow.Act(rctx, chatId, action)
	if err != nil {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
		t.flowError(chatId, "reg:"+string(action), err)
		return nil
	}

	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
	if reply.Kind == registration.NoSession {
		t.plainResponse(chatId, "Sesi pendaftaran sudah berakhir\\. Ketik /daftar untuk mulai lagi\\.")
		return nil
	}
	t.renderReply(chatId, reply)
	return nil
}

// onDecisionCallback handles the Approve and Reject buttons under a proof.
// The review message gets a status line and loses its buttons; failures to
// edit it are ignored.
func (t *TgBot) onDecisionCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	actorId := cq.From.Id

	decision, paymentId, err := core.ParseToken(cq.Data)
	if err != nil {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Data tidak valid"})
		return nil
	}

	rctx, cancel := requestContext()
	defer cancel()

	res, err := t.core.Decide(rctx, actorId, decision, paymentId)
	switch {
	case errors.Is(err, core.ErrNotAuthorized):
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Kamu bukan admin.", ShowAlert: true})
		return nil
	case errors.Is(err, core.ErrPaymentNotFound), errors.Is(err, core.ErrAlreadyDecided):
		t.annotateReview(cq, statusMissing)
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Sudah diproses"})
		return nil
	case err != nil:
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Terjadi kesalahan"})
		t.reportError(actorId, cq.Data, err)
		return nil
	}

	t.annotateReview(cq, decisionStatus(res.Payment.Status))

	answer := string(res.Payment.Status)
	if res.NotifyErr != nil {
		answer += ", tapi user tidak bisa dihubungi"
	}
	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: answer})
	return nil
}

func (t *TgBot) annotateReview(cq *tgbotapi.CallbackQuery, status string) {
	msg := cq.Message
	if msg == nil {
		return
	}
	im, ok := msg.(tgbotapi.Message)
	if !ok {
		return
	}

	var err error
	if len(im.Photo) > 0 {
		_, _, err = t.api.EditMessageCaption(&tgbotapi.EditMessageCaptionOpts{
			ChatId:      im.Chat.Id,
			MessageId:   im.MessageId,
			Caption:     annotate(im.Caption, status),
			ReplyMarkup: emptyKeyboard(),
		})
	} else {
		_, _, err = t.api.EditMessageText(annotate(im.Text, status), &tgbotapi.EditMessageTextOpts{
			ChatId:      im.Chat.Id,
			MessageId:   im.MessageId,
			ReplyMarkup: emptyKeyboard(),
		})
	}
	if err != nil {
		t.log.With(
			slog.Int64("chat_id", im.Chat.Id),
			slog.Int64("message_id", im.MessageId),
		).Debug("editing review message", sl.Err(err))
	}
}
