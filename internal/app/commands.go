package app

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ticketbot/core/telegram/commands"
	"github.com/m3rciful/ticketbot/core/telegram/middleware"
	"github.com/m3rciful/ticketbot/internal/registration"
)

type route struct {
	name  string
	desc  string
	alias string
	admin bool
	h     tele.HandlerFunc
}

func (a *App) routes() []route {
	return []route{
		{name: "/start", desc: "Регистрация и главное меню", h: a.handleStart},
		{name: registration.CancelCommand, desc: "Отменить текущее действие", h: a.handleCancel},
		{name: "/tickets", desc: "Мои билеты", alias: btnMyTickets, h: a.handleMyTickets},
		{name: "/get", desc: "Получить билеты", alias: btnGetTickets, h: a.handleGetTickets},
		{name: "/results", desc: "Результаты конкурса", alias: btnResults, h: a.handleResults},
		{name: "/menu", desc: "Главное меню", alias: btnBack, h: a.handleBack},

		{name: "/export_users", desc: "Экспорт пользователей и билетов", alias: btnExport, admin: true, h: a.handleExport},
		{name: "/manage", desc: "Управление пользователями", alias: btnManage, admin: true, h: a.handleManage},
		{name: "/adduser", desc: "Добавить пользователя", alias: btnAddUser, admin: true, h: a.handleAddUser},
		{name: "/deluser", desc: "Удалить пользователя", alias: btnDeleteUser, admin: true, h: a.handleDeleteUser},
	}
}

func (a *App) registerCommands() error {
	var errs []error
	for _, rt := range a.routes() {
		cmd := commands.Command{Handler: rt.h, Description: rt.desc, AdminOnly: rt.admin}
		if rt.alias != "" {
			cmd.Aliases = []string{rt.alias}
		}
		errs = append(errs, a.registry.RegisterCommand(rt.name, cmd))
	}
	a.registry.SetTextFallback(a.UnknownText())
	return errors.Join(errs...)
}

func (a *App) registerCallbacks() error {
	admin := middleware.AdminOnlyMiddleware(a.adminOptions())
	err := errors.Join(
		a.registry.RegisterCallback(cbLearnResults, a.handleLearnResults),
		a.registry.RegisterCallback(cbDeleteOK, admin(a.handleDeleteConfirm)),
		a.registry.RegisterCallback(cbDeleteCancel, admin(a.handleDeleteCancel)),
	)
	a.registry.SetCallbackNotFound(a.UnknownCallback())
	return err
}

func (a *App) registerDialogues() {
	a.sessions.HandlePrefix(registration.StatePrefix, a.handleRegistrationStep)
	a.sessions.HandlePrefix(adminStatePrefix, a.handleAdminStep)
}
