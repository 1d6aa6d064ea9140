package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/vludko/workformat-bot/internal/models"
	"github.com/vludko/workformat-bot/internal/repository"
	"github.com/vludko/workformat-bot/internal/scheduler"
)

const msgAdminOnly = "❌ Доступ запрещён. Только администраторы могут выполнять эту команду."

// requireAdmin runs the role check shared by every admin command.
func (b *Bot) requireAdmin(ctx context.Context, tCtx telebot.Context, command string) bool {
	b.metrics.CommandReceived.WithLabelValues(command).Inc()

	if !b.tracker.IsAdmin(ctx, tCtx.Sender().ID) {
		_ = tCtx.Send(msgAdminOnly)
		return false
	}

	return true
}

// registerHandler processes /register @handle: it checks for an existing
// employee with the handle and explains the two-step registration flow.
func (b *Bot) registerHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if !b.requireAdmin(timeoutCtx, ctx, "/register") {
		return nil
	}

	handle := strings.TrimPrefix(strings.TrimSpace(ctx.Message().Payload), "@")
	if handle == "" {
		return ctx.Send(
			"📝 Регистрация сотрудника\n\n" +
				"Использование: /register @username или /register username\n\n" +
				"Пример: /register @employee1",
		)
	}

	started := time.Now()
	existing, err := b.store.GetEmployeeByHandle(timeoutCtx, handle)
	b.metrics.DBQueryDuration.WithLabelValues("get_employee").Observe(time.Since(started).Seconds())
	if err == nil {
		return ctx.Send(
			"⚠️ Пользователь @" + handle + " уже зарегистрирован.\n" +
				"Роль: " + string(existing.Role) + "\n" +
				"Активен: " + yesNo(existing.Active),
		)
	}
	if !errors.Is(err, repository.ErrEmployeeNotFound) {
		b.log.Error("Failed to look up handle", "handle", handle, "error", err)
		return ctx.Send(msgInternalError)
	}

	return ctx.Send(
		"📝 Для регистрации сотрудника @" + handle + ":\n\n" +
			"1. Попросите пользователя @" + handle + " написать боту команду /start\n" +
			"2. После этого используйте команду: /register_by_id <tg_id>\n\n" +
			"Или используйте команду /register_by_username @" + handle + " после того, " +
			"как пользователь напишет боту.",
	)
}

// registerByUsernameHandler processes /register_by_username @handle:
// it re-activates an existing, deactivated employee.
func (b *Bot) registerByUsernameHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if !b.requireAdmin(timeoutCtx, ctx, "/register_by_username") {
		return nil
	}

	handle := strings.TrimPrefix(strings.TrimSpace(ctx.Message().Payload), "@")
	if handle == "" {
		return ctx.Send(
			"📝 Регистрация сотрудника по username\n\n" +
				"Использование: /register_by_username @username\n\n" +
				"Пример: /register_by_username @employee1\n\n" +
				"Примечание: пользователь должен сначала написать боту /start, " +
				"чтобы его данные были доступны.",
		)
	}

	existing, err := b.store.GetEmployeeByHandle(timeoutCtx, handle)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return ctx.Send(
				"❌ Пользователь @" + handle + " не найден.\n\n" +
					"Попросите пользователя написать боту команду /start, " +
					"чтобы его данные стали доступны.",
			)
		}
		b.log.Error("Failed to look up handle", "handle", handle, "error", err)
		return ctx.Send(msgInternalError)
	}

	if existing.Active {
		return ctx.Send(
			"⚠️ Пользователь @" + handle + " уже зарегистрирован и активен.\n" +
				"Роль: " + string(existing.Role) + "\n" +
				"tg_id: " + strconv.FormatInt(existing.ID, 10),
		)
	}

	if err = b.store.UpdateActiveFlag(timeoutCtx, existing.ID, true); err != nil {
		b.log.Error("Failed to activate employee", "handle", handle, "error", err)
		return ctx.Send(msgInternalError)
	}
	b.log.Info("Employee activated by admin", "handle", handle, "id", existing.ID, "admin", ctx.Sender().ID)

	return ctx.Send(
		"✅ Пользователь @" + handle + " успешно зарегистрирован как сотрудник.\n" +
			"Роль: " + string(existing.Role) + "\n" +
			"tg_id: " + strconv.FormatInt(existing.ID, 10),
	)
}

// registerByIDHandler processes /register_by_id <tg_id> <username> <name>:
// it creates a new employee, or re-activates one that already exists
// under the given identity.
func (b *Bot) registerByIDHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if !b.requireAdmin(timeoutCtx, ctx, "/register_by_id") {
		return nil
	}

	const minArgs = 3
	args := strings.Fields(ctx.Message().Payload)
	if len(args) < minArgs {
		return ctx.Send(
			"📝 Регистрация сотрудника по ID\n\n" +
				"Использование: /register_by_id <tg_id> <username> <имя>\n\n" +
				"Пример: /register_by_id 123456789 employee1 Иван Иванов",
		)
	}

	newID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return ctx.Send("❌ Ошибка: tg_id должен быть числом.")
	}

	handle := strings.TrimPrefix(args[1], "@")
	name := strings.Join(args[2:], " ")

	existing, err := b.store.GetEmployeeByID(timeoutCtx, newID)
	if err == nil {
		if existing.Active {
			return ctx.Send(
				"⚠️ Пользователь с tg_id=" + args[0] + " уже зарегистрирован и активен.\n" +
					"Username: @" + existing.Handle + "\n" +
					"Роль: " + string(existing.Role),
			)
		}
		if err = b.store.UpdateActiveFlag(timeoutCtx, newID, true); err != nil {
			b.log.Error("Failed to activate employee", "id", newID, "error", err)
			return ctx.Send(msgInternalError)
		}
		return ctx.Send(
			"✅ Пользователь с tg_id=" + args[0] + " активирован.\n" +
				"Username: @" + existing.Handle + "\n" +
				"Роль: " + string(existing.Role),
		)
	}
	if !errors.Is(err, repository.ErrEmployeeNotFound) {
		b.log.Error("Failed to look up identity", "id", newID, "error", err)
		return ctx.Send(msgInternalError)
	}

	if err = b.store.CreateEmployee(timeoutCtx, newID, handle, name, models.RoleEmployee, true); err != nil {
		b.log.Error("Failed to register employee", "id", newID, "handle", handle, "error", err)
		return ctx.Send("❌ Ошибка при регистрации сотрудника. Возможно, пользователь уже существует.")
	}
	b.log.Info("Employee registered by admin", "handle", handle, "id", newID, "admin", ctx.Sender().ID)

	return ctx.Send(
		"✅ Сотрудник успешно зарегистрирован!\n\n" +
			"tg_id: " + args[0] + "\n" +
			"Username: @" + handle + "\n" +
			"Имя: " + name + "\n" +
			"Роль: employee",
	)
}

// setMorningTimeHandler processes /set_morning_time HH:MM.
func (b *Bot) setMorningTimeHandler(ctx telebot.Context) error {
	return b.setTriggerTime(ctx, "/set_morning_time",
		repository.SettingMorningTime, "✅ Время утренней рассылки обновлено: ")
}

// setAfternoonTimeHandler processes /set_afternoon_time HH:MM.
func (b *Bot) setAfternoonTimeHandler(ctx telebot.Context) error {
	return b.setTriggerTime(ctx, "/set_afternoon_time",
		repository.SettingAfternoonTime, "✅ Время дневного напоминания обновлено: ")
}

// setTriggerTime validates the supplied time, persists the setting and
// reschedules the daily jobs.
func (b *Bot) setTriggerTime(ctx telebot.Context, command, settingKey, confirmation string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if !b.requireAdmin(timeoutCtx, ctx, command) {
		return nil
	}

	clockTime := strings.TrimSpace(ctx.Message().Payload)
	if _, _, err := scheduler.ParseClockTime(clockTime); err != nil {
		return ctx.Send(
			"❌ Некорректный формат времени.\n\n" +
				"Использование: " + command + " ЧЧ:ММ\n\n" +
				"Пример: " + command + " 08:30",
		)
	}

	if err := b.store.UpsertSetting(timeoutCtx, settingKey, clockTime); err != nil {
		b.log.Error("Failed to save trigger time", "key", settingKey, "error", err)
		return ctx.Send(msgInternalError)
	}

	if err := b.reconfigureScheduler(timeoutCtx); err != nil {
		b.log.Error("Failed to reschedule triggers", "key", settingKey, "error", err)
		return ctx.Send("⚠️ Время сохранено, но перенастроить расписание не удалось. Перезапустите бота.")
	}
	b.log.Info("Trigger time updated", "key", settingKey, "time", clockTime, "admin", ctx.Sender().ID)

	return ctx.Send(confirmation + clockTime)
}

func yesNo(value bool) string {
	if value {
		return "Да"
	}
	return "Нет"
}
