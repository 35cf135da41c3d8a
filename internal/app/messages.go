package app

import (
	"fmt"
	"html"

	"github.com/m3rciful/ticketbot/core/telegram/format"
)

// Reply-keyboard labels. They double as command aliases.
const (
	btnMyTickets  = "🎫 Мои билеты"
	btnGetTickets = "🎟️ Получить билеты"
	btnResults    = "🏆 Результаты"
	btnExport     = "📊 Экспорт данных"
	btnManage     = "⚙️ Управление пользователями"
	btnAddUser    = "➕ Добавить пользователя"
	btnDeleteUser = "➖ Удалить пользователя"
	btnBack       = "⬅️ Назад"
)

// Callback keys.
const (
	cbLearnResults = "learn_results"
	cbDeleteOK     = "admin_delete_confirm"
	cbDeleteCancel = "admin_delete_cancel"
)

const (
	msgChooseAction     = "✨ *Выберите действие:* ✨"
	msgBackToMenu       = "⬅️ *Возврат в главное меню:* ⬅️"
	msgRegisterIntro    = "📝 Для начала регистрации, пожалуйста, введите следующие данные:"
	msgAlreadyWelcome   = "🎉 Вы уже зарегистрированы! Добро пожаловать снова! 🎉"
	msgAlreadyDone      = "🎉 Вы уже зарегистрированы! 🎉"
	msgRegistered       = "✅ *Регистрация успешно завершена!* Добро пожаловать в клуб! 🎉"
	msgRegisterFailed   = "❌ Ошибка при регистрации. Пожалуйста, попробуйте снова. ❌"
	msgBlankAnswer      = "⚠️ Ответ не может быть пустым."
	msgCommandAnswer    = "⚠️ Команды здесь не принимаются, введите ответ текстом."
	msgNotRegistered    = "❌ Вы не зарегистрированы. ❌\nНажмите /start, чтобы пройти регистрацию."
	msgNoTickets        = "ℹ️ У вас пока нет билетов. ℹ️"
	msgTicketsHeader    = "🎫 *Ваши билеты:* 🎫"
	msgSendReceipt      = "🧾 Отправьте *чек* в формате *PDF* для получения билетов. 🚀"
	msgCancelled        = "❌ Действие отменено."
	msgNothingToCancel  = "ℹ️ Нет активного действия."
	msgUnknownText      = "🤔 Не понимаю это сообщение. Воспользуйтесь меню ниже."
	msgNoPermission     = "🚫 У вас нет прав на выполнение этого действия. 🚫"
	msgRateLimited      = "⏳ Слишком много запросов. Подождите немного."
	msgTryLater         = "❌ Произошла ошибка. Пожалуйста, попробуйте позже. ❌"
	msgManageMenu       = "⚙️ *Выберите действие по управлению пользователями:* ⚙️"
	msgNoUsers          = "ℹ️ В базе данных не найдено пользователей. ℹ️"
	msgExportCaption    = "📊 Отчет по данным пользователей и билетам 📊"
	msgAskNewUserID     = "➕ Введите *ID нового пользователя*:"
	msgAskDeleteUserID  = "➖ Введите *ID пользователя для удаления*:"
	msgBadUserID        = "❌ Некорректный ID пользователя. Введите *числовой ID*. ❌"
	msgDeleteCancelled  = "↩️ Удаление отменено."
	msgExpectText       = "⚠️ Сейчас ожидается текстовый ответ."
	msgReceiptNotPDF    = "❌ Пожалуйста, отправьте чек в формате *PDF*. ❌"
	msgReceiptTooLarge  = "❌ Файл слишком большой. Отправьте PDF-чек из приложения банка. ❌"
	msgReceiptBadData   = "❌ Не удалось извлечь данные из чека. Пожалуйста, убедитесь, что чек корректный и в формате *PDF*. ❌"
	msgReceiptDuplicate = "⚠️ Вы уже добавили этот чек. ⚠️"
	msgReceiptTaken     = "🚫 Этот чек уже был использован другим пользователем. 🚫"
	msgReceiptFailed    = "❌ Произошла ошибка при обработке чека. Пожалуйста, попробуйте позже. ❌"

	msgResults = "🏆 <b>Результаты конкурса будут опубликованы позже!</b> 🏆\n\n" +
		"Ожидайте объявлений! 🔔"
	msgResultsDetails = "📜 <b>Подробная информация о результатах конкурса:</b> 📜\n\n" +
		"Результаты будут определены случайным образом среди всех участников, " +
		"получивших билеты. Следите за новостями в канале! 📢\n\n" +
		"Дата объявления результатов: <b>[Дата будет объявлена позже]</b>. 📅\n" +
		"Призовой фонд: <b>[Призовой фонд будет объявлен позже]</b>. 🎁\n\n" +
		"Желаем всем удачи! 👍"
	btnLearnMore = "Подробнее ℹ️"
	btnConfirm   = "✅ Удалить"
)

func defaultWelcome(price int64, currency string) string {
	cur := html.EscapeString(currency)
	return fmt.Sprintf("🎉 <b>Добро пожаловать в Конкурс Бот!</b> 🎉\n\n"+
		"Приветствую! 👋 Я помогу вам получить билеты для участия в конкурсах. 🚀\n\n"+
		"💰 <b>Стоимость билета:</b> %[1]d %[2]s за участие\n"+
		"📜 <b>Правила конкурса:</b>\n\n"+
		"Ваш чек должен включать сумму <b>не менее</b> %[1]d %[2]s.\n"+
		"Если сумма чека, например, %[3]d %[2]s, вы получите <b>2 билета</b> и так далее.\n"+
		"Для участия отправьте чек в формате <b>PDF</b>.\n\n"+
		"📌 <b>Команды меню:</b> 📌\n"+
		"🎫 <b>Мои билеты</b> – билеты, накопленные за все время.\n"+
		"🎟️ <b>Получить билеты</b> – отправьте чек и получите свои билеты!\n"+
		"🏆 <b>Результаты</b> – результаты прошедших и будущих конкурсов!\n\n"+
		"🔔 Следите за обновлениями и не пропустите объявления о новых конкурсах! 🔔",
		price, cur, price*2)
}

func msgTicketsIssued(n int) string {
	return fmt.Sprintf("🎉 Поздравляем! Вы получили *%d %s*! 🎟️ Удачи в конкурсе! 🎉", n, ticketWord(n))
}

func msgBelowPrice(amount, price int64, currency string) string {
	return fmt.Sprintf("⚠️ Сумма чека %d %s меньше стоимости билета (%d %s). Билеты не начислены.",
		amount, currency, price, currency)
}

func msgTooManyTickets(max int) string {
	return fmt.Sprintf("⚠️ Один чек приносит не более %d %s. Обратитесь к администратору.", max, ticketWord(max))
}

func msgTicketsTotal(n int) string {
	return fmt.Sprintf("Всего билетов накоплено: *%d шт.*", n)
}

func msgAskSurnameFor(id int64) string {
	return fmt.Sprintf("👤 Введите *фамилию* для пользователя с ID %d (или пропустите, нажав /skip):", id)
}

func msgAskNameFor(id int64) string {
	return fmt.Sprintf("👤 Введите *имя* для пользователя с ID %d (или /skip):", id)
}

func msgAskAddressFor(id int64) string {
	return fmt.Sprintf("📍 Введите *адрес* для пользователя с ID %d (или /skip):", id)
}

func msgAskPhoneFor(id int64) string {
	return fmt.Sprintf("📞 Введите *номер телефона* для пользователя с ID %d (или /skip):", id)
}

func msgUserAdded(id int64) string {
	return fmt.Sprintf("✅ Пользователь с ID %d успешно *добавлен* администратором. ✅", id)
}

func msgUserExists(id int64) string {
	return fmt.Sprintf("⚠️ Пользователь с ID %d уже существует. ⚠️", id)
}

func msgUserAddFailed(id int64) string {
	return fmt.Sprintf("❌ Не удалось добавить пользователя с ID %d. Произошла ошибка. ❌", id)
}

func msgUserNotFound(id int64) string {
	return fmt.Sprintf("❌ Пользователь с ID %d не найден. ❌", id)
}

func msgConfirmDelete(id int64, name string) string {
	if name == "" {
		name = "без имени"
	}
	return fmt.Sprintf("❓ Удалить пользователя с ID %d (*%s*)? Его билеты будут удалены, чеки останутся использованными.", id, format.Markdown(name))
}

func msgUserDeleted(id int64) string {
	return fmt.Sprintf("✅ Пользователь с ID %d успешно *удален*. ✅", id)
}

func msgUserDeleteFailed(id int64) string {
	return fmt.Sprintf("❌ Не удалось удалить пользователя с ID %d. Произошла ошибка. ❌", id)
}

// ticketWord picks the Russian plural form of "билет" for n.
func ticketWord(n int) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return "билетов"
	}
	switch n % 10 {
	case 1:
		return "билет"
	case 2, 3, 4:
		return "билета"
	}
	return "билетов"
}
