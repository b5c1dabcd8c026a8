package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/logger"
	"lightning_sats/internal/repository"
	"lightning_sats/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot handles admin commands via Telegram
type AdminBot struct {
	bot      *tgbotapi.BotAPI
	adminIDs []int64

	accounts    *repository.AccountRepository
	withdrawals *repository.WithdrawalRepository
	countries   *repository.BlockedCountryRepository
	banLogs     *repository.BanLogRepository
	stats       *repository.StatsRepository

	abuse   *service.AbuseService
	payouts *service.WithdrawalService

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

type Deps struct {
	Accounts    *repository.AccountRepository
	Withdrawals *repository.WithdrawalRepository
	Countries   *repository.BlockedCountryRepository
	BanLogs     *repository.BanLogRepository
	Stats       *repository.StatsRepository
	Abuse       *service.AbuseService
	Payouts     *service.WithdrawalService
}

func NewAdminBot(token string, adminIDs []int64, deps Deps) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", api.Self.UserName)

	return &AdminBot{
		bot:      api,
		adminIDs: adminIDs,

		accounts:    deps.Accounts,
		withdrawals: deps.Withdrawals,
		countries:   deps.Countries,
		banLogs:     deps.BanLogs,
		stats:       deps.Stats,
		abuse:       deps.Abuse,
		payouts:     deps.Payouts,

		stopCh: make(chan struct{}),
		log:    log,
	}, nil
}

// Start runs the update loop until Stop is called
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string

	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()

	case "stats":
		response = b.handleStats(ctx)

	case "user":
		response = b.handleUser(ctx, msg.CommandArguments())

	case "ban":
		response = b.handleBan(ctx, msg.CommandArguments(), msg.From.ID)

	case "unban":
		response = b.handleUnban(ctx, msg.CommandArguments(), msg.From.ID)

	case "banlogs":
		response = b.handleBanLogs(ctx, msg.CommandArguments())

	case "withdrawals":
		response = b.handleWithdrawals(ctx)

	case "approve":
		response = b.handleApprove(ctx, msg.CommandArguments())

	case "reject":
		response = b.handleReject(ctx, msg.CommandArguments())

	case "countries":
		response = b.handleCountries(ctx)

	case "block":
		response = b.handleBlockCountry(ctx, msg.CommandArguments())

	case "unblock":
		response = b.handleUnblockCountry(ctx, msg.CommandArguments())

	default:
		response = "❌ Неизвестная команда. Используйте /help для списка команд."
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *AdminBot) helpMessage() string {
	return `<b>🤖 Команды администратора</b>

<b>📊 Статистика:</b>
/stats - Статистика платформы
/banlogs [лимит] - Последние баны

<b>👤 Пользователи:</b>
/user &lt;tg_id&gt; - Информация об аккаунте
/ban &lt;tg_id&gt; [причина] - Заблокировать
/unban &lt;tg_id&gt; - Разблокировать

<b>💸 Выводы:</b>
/withdrawals - Ожидающие выводы
/approve &lt;id&gt; [tx_hash] - Одобрить вывод
/reject &lt;id&gt; &lt;причина&gt; - Отклонить вывод

<b>🌍 Страны:</b>
/countries - Список заблокированных стран
/block &lt;код&gt; [название] - Заблокировать страну
/unblock &lt;код&gt; - Разблокировать страну`
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	s, err := b.stats.GetPlatformStats(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>📊 Статистика платформы</b>

<b>👥 Аккаунты:</b>
• Всего: %d
• Активных сегодня: %d
• Заблокировано: %d

<b>📺 Реклама:</b>
• Просмотров всего: %d
• Просмотров сегодня: %d

<b>⚡ Сатоши:</b>
• Всего заработано: %d
• На балансах: %d
• Выплачено: %d

<b>💸 Выводы:</b>
• Ожидают: %d (%d sats)`,
		s.TotalAccounts,
		s.ActiveToday,
		s.BannedAccounts,
		s.AdsWatchedTotal,
		s.AdsWatchedToday,
		s.TotalEarned,
		s.TotalBalance,
		s.TotalPaidOut,
		s.PendingWithdraws,
		s.PendingAmount,
	)
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	if args == "" {
		return "❌ Использование: /user <tg_id>"
	}

	tgID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Неверный Telegram ID"
	}

	acct, err := b.accounts.GetByTgID(ctx, tgID)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if acct == nil {
		return "❌ Аккаунт не найден"
	}

	status := "✅ активен"
	if acct.IsBanned {
		status = fmt.Sprintf("🚫 заблокирован (%s)", acct.BanReason)
	}

	return fmt.Sprintf(`<b>👤 Аккаунт #%d</b>

• Telegram ID: %d
• Username: @%s
• Статус: %s
• ⚡ Баланс: %d sats
• 💰 Всего заработано: %d sats
• 📺 Просмотров: %d (сегодня: %d)
• 🔥 Стрик: %d
• 🔗 Код: <code>%s</code>
• 📅 Регистрация: %s`,
		acct.ID,
		acct.TgID,
		acct.Username,
		status,
		acct.Balance,
		acct.TotalEarned,
		acct.AdsWatchedTotal,
		acct.AdsWatchedToday,
		acct.StreakCount,
		acct.ReferralCode,
		acct.CreatedAt.Format("02.01.2006 15:04"),
	)
}

func (b *AdminBot) handleBan(ctx context.Context, args string, actorTgID int64) string {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if parts[0] == "" {
		return "❌ Использование: /ban <tg_id> [причина]"
	}

	tgID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный Telegram ID"
	}

	reason := "banned by admin"
	if len(parts) == 2 {
		reason = parts[1]
	}

	acct, err := b.accounts.GetByTgID(ctx, tgID)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if acct == nil {
		return "❌ Аккаунт не найден"
	}

	actorID := b.resolveActor(ctx, actorTgID)
	if err := b.abuse.ManualBan(ctx, acct.ID, reason, actorID, acct.LoginInfo()); err != nil {
		if errors.Is(err, service.ErrCannotBanAdmin) {
			return "❌ Нельзя заблокировать администратора"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("🚫 Аккаунт %d заблокирован: %s", tgID, reason)
}

func (b *AdminBot) handleUnban(ctx context.Context, args string, actorTgID int64) string {
	if args == "" {
		return "❌ Использование: /unban <tg_id>"
	}

	tgID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Неверный Telegram ID"
	}

	acct, err := b.accounts.GetByTgID(ctx, tgID)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if acct == nil {
		return "❌ Аккаунт не найден"
	}

	actorID := b.resolveActor(ctx, actorTgID)
	if err := b.abuse.ManualUnban(ctx, acct.ID, actorID); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Аккаунт %d разблокирован", tgID)
}

func (b *AdminBot) handleBanLogs(ctx context.Context, args string) string {
	limit := 10
	if args != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	logs, err := b.banLogs.GetRecent(ctx, limit)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(logs) == 0 {
		return "✅ Нет записей о банах"
	}

	var sb strings.Builder
	sb.WriteString("<b>🚫 Последние баны</b>\n\n")
	for _, l := range logs {
		kind := "авто"
		if l.Type == domain.BanTypeManual {
			kind = "вручную"
		}
		action := "бан"
		if l.Unban {
			action = "разбан"
		}
		sb.WriteString(fmt.Sprintf("• #%d | аккаунт %d | %s (%s)\n  %s — %s\n",
			l.ID, l.AccountID, action, kind, l.Reason, l.CreatedAt.Format("02.01 15:04")))
	}
	return sb.String()
}

func (b *AdminBot) handleWithdrawals(ctx context.Context) string {
	list, err := b.withdrawals.GetPending(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(list) == 0 {
		return "✅ Нет ожидающих выводов"
	}

	var sb strings.Builder
	sb.WriteString("<b>💸 Ожидающие выводы</b>\n\n")
	for _, w := range list {
		sb.WriteString(fmt.Sprintf("🆔 #%d | аккаунт %d\n", w.ID, w.AccountID))
		sb.WriteString(fmt.Sprintf("⚡ Сумма: %d sats (%s)\n", w.Amount, w.Method))
		sb.WriteString(fmt.Sprintf("💳 Адрес: <code>%s</code>\n", w.Destination))
		sb.WriteString(fmt.Sprintf("📅 %s\n\n", w.CreatedAt.Format("02.01.2006 15:04")))
	}
	sb.WriteString("/approve <id> — одобрить\n/reject <id> <причина> — отклонить")
	return sb.String()
}

func (b *AdminBot) handleApprove(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) < 1 {
		return "❌ Использование: /approve <id> [tx_hash]"
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный ID вывода"
	}

	txHash := ""
	if len(parts) >= 2 {
		txHash = parts[1]
	} else {
		txHash = fmt.Sprintf("manual_%d_%d", id, time.Now().Unix())
	}

	if err := b.payouts.Complete(ctx, id, txHash); err != nil {
		if errors.Is(err, service.ErrWithdrawalProcessed) {
			return fmt.Sprintf("⚠️ Вывод #%d уже обработан", id)
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Вывод #%d одобрен\nТранзакция: %s", id, txHash)
}

func (b *AdminBot) handleReject(ctx context.Context, args string) string {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		return "❌ Использование: /reject <id> <причина>"
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный ID вывода"
	}

	if err := b.payouts.Reject(ctx, id, parts[1]); err != nil {
		if errors.Is(err, service.ErrWithdrawalProcessed) {
			return fmt.Sprintf("⚠️ Вывод #%d уже обработан", id)
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("❌ Вывод #%d отклонён", id)
}

func (b *AdminBot) handleCountries(ctx context.Context) string {
	list, err := b.countries.List(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(list) == 0 {
		return "✅ Список заблокированных стран пуст"
	}

	var sb strings.Builder
	sb.WriteString("<b>🌍 Заблокированные страны</b>\n\n")
	for _, country := range list {
		sb.WriteString(fmt.Sprintf("• %s — %s\n", country.Code, country.Name))
	}
	return sb.String()
}

func (b *AdminBot) handleBlockCountry(ctx context.Context, args string) string {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if parts[0] == "" || len(parts[0]) != 2 {
		return "❌ Использование: /block <двухбуквенный код> [название]"
	}

	code := strings.ToUpper(parts[0])
	name := code
	if len(parts) == 2 {
		name = parts[1]
	}

	if err := b.countries.Add(ctx, code, name); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("🚫 Страна %s заблокирована", code)
}

func (b *AdminBot) handleUnblockCountry(ctx context.Context, args string) string {
	code := strings.ToUpper(strings.TrimSpace(args))
	if len(code) != 2 {
		return "❌ Использование: /unblock <двухбуквенный код>"
	}

	if err := b.countries.Remove(ctx, code); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Страна %s разблокирована", code)
}

// resolveActor maps the commanding admin's tg id to an account id for audit
// rows; 0 when the admin has no account in the system
func (b *AdminBot) resolveActor(ctx context.Context, tgID int64) int64 {
	acct, err := b.accounts.GetByTgID(ctx, tgID)
	if err != nil || acct == nil {
		return 0
	}
	return acct.ID
}
