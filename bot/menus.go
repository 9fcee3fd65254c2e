package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Per-role command lists for Telegram's menu button (the "/" icon in the chat input).
// Everyone gets commandsUser; admins get commandsAdmin through BotCommandScopeChat.

var commandsUser = []tgbotapi.BotCommand{
	{Command: "daftar", Description: "Registrasi turnamen"},
	{Command: "status", Description: "Cek status pendaftaran"},
	{Command: "bayar", Description: "Instruksi pembayaran"},
	{Command: "batal", Description: "Batalkan registrasi"},
	{Command: "help", Description: "Daftar perintah"},
}

var commandsAdmin = append(append([]tgbotapi.BotCommand{}, commandsUser...),
	tgbotapi.BotCommand{Command: "pending", Description: "Bukti yang menunggu keputusan"},
	tgbotapi.BotCommand{Command: "export", Description: "CSV peserta approved"},
	tgbotapi.BotCommand{Command: "approve", Description: "Setujui pembayaran"},
	tgbotapi.BotCommand{Command: "reject", Description: "Tolak pembayaran"},
)

// setDefaultCommands sets the bot menu for everyone.
func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsUser, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}

// syncAdminMenus gives every configured admin the admin menu. An admin who
// never opened a chat with the bot is skipped with a warning.
func (t *TgBot) syncAdminMenus() {
	for _, chatId := range t.config.AdminIds {
		_, err := t.api.SetMyCommands(commandsAdmin, &tgbotapi.SetMyCommandsOpts{
			Scope: tgbotapi.BotCommandScopeChat{ChatId: chatId},
		})
		if err != nil {
			t.log.Warn("setting admin commands", "chat_id", chatId, "error", err)
		}
	}
}
