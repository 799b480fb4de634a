package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/limestar/limestar/pkg/limestar/models"
	"github.com/limestar/limestar/pkg/limestar/processor"
)

const welcomeText = `LimeStar - 链接收藏助手

直接发送链接即可自动收藏，AI 会为你生成中文标题、描述和标签。

命令列表：
/list [n] - 显示最近 n 条收藏（默认 5）
/search <关键词> - 搜索收藏
/rebuild_tags - 重建所有标签（需确认）
/rebuild_status - 查看重建进度
/help - 显示帮助

小技巧：
- 链接后可附带备注，如：
  https://example.com 这是一个好工具`

const helpText = `使用帮助

收藏链接：
直接发送链接，可附带备注
例：https://github.com 代码托管平台

查看收藏：
/list - 显示最近 5 条
/list 10 - 显示最近 10 条

搜索收藏：
/search <关键词>
例：/search github

标签管理：
/rebuild_tags - 清除并重建所有标签
/rebuild_status - 查看重建进度`

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, welcomeText)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, helpText)
}

// handleList shows the most recent processed bookmarks
func (b *Bot) handleList(msg *tgbotapi.Message) {
	limit := 5
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 {
			if n > 20 {
				n = 20
			}
			limit = n
		}
	}

	var links []models.Link
	if err := b.db.Where("is_processed = ?", true).
		Order("created_at DESC").Limit(limit).Find(&links).Error; err != nil {
		b.reply(msg.Chat.ID, "查询失败: "+err.Error())
		return
	}

	if len(links) == 0 {
		b.reply(msg.Chat.ID, "暂无收藏")
		return
	}

	lines := []string{fmt.Sprintf("最近收藏 (共 %d 条)\n", len(links))}
	for i, link := range links {
		date := link.CreatedAt.Format("01-02")
		lines = append(lines, fmt.Sprintf(`%d. <a href="%s">%s</a>`, i+1, link.URL, html.EscapeString(link.Title)))
		lines = append(lines, fmt.Sprintf("   %s | %s\n", link.Domain, date))
	}

	b.replyHTML(msg.Chat.ID, strings.Join(lines, "\n"))
}

// handleSearch searches processed bookmarks by keyword
func (b *Bot) handleSearch(msg *tgbotapi.Message) {
	keyword := strings.TrimSpace(msg.CommandArguments())
	if keyword == "" {
		b.reply(msg.Chat.ID, "请输入搜索关键词\n例：/search github")
		return
	}

	term := "%" + keyword + "%"
	var links []models.Link
	if err := b.db.Preload("Tags").
		Where("is_processed = ?", true).
		Where("title LIKE ? OR description LIKE ? OR url LIKE ?", term, term, term).
		Order("created_at DESC").Limit(10).Find(&links).Error; err != nil {
		b.reply(msg.Chat.ID, "搜索失败: "+err.Error())
		return
	}

	if len(links) == 0 {
		b.reply(msg.Chat.ID, fmt.Sprintf("未找到包含 %q 的收藏", keyword))
		return
	}

	lines := []string{
		fmt.Sprintf("搜索结果: %q\n", html.EscapeString(keyword)),
		fmt.Sprintf("找到 %d 条匹配:\n", len(links)),
	}
	for i, link := range links {
		lines = append(lines, fmt.Sprintf(`%d. <a href="%s">%s</a>`, i+1, link.URL, html.EscapeString(link.Title)))
		desc := link.Description
		if len([]rune(desc)) > 50 {
			desc = string([]rune(desc)[:50]) + "..."
		}
		lines = append(lines, "   "+html.EscapeString(desc))
		if len(link.Tags) > 0 {
			names := make([]string, 0, 3)
			for _, t := range link.Tags {
				if len(names) == 3 {
					break
				}
				names = append(names, t.Name)
			}
			lines = append(lines, "   "+strings.Join(names, " | ")+"\n")
		} else {
			lines = append(lines, "")
		}
	}

	b.replyHTML(msg.Chat.ID, strings.Join(lines, "\n"))
}

// handleMessage scans a plain message for a URL and bookmarks it
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	url, note := ExtractURLAndNote(msg.Text)
	if url == "" {
		return // no link, ignore
	}

	processing, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "正在处理链接..."))
	if err != nil {
		log.Printf("Failed to send message: %v", err)
		return
	}

	link, err := b.proc.AddAndProcess(context.Background(), url, note, "telegram")
	if err != nil {
		b.edit(msg.Chat.ID, processing.MessageID, "处理失败: "+err.Error())
		return
	}

	lines := []string{"已收藏！\n", link.Title, link.Description + "\n"}
	if len(link.Tags) > 0 {
		names := make([]string, len(link.Tags))
		for i, t := range link.Tags {
			names[i] = t.Name
		}
		lines = append(lines, strings.Join(names, " | "))
	}

	b.edit(msg.Chat.ID, processing.MessageID, strings.Join(lines, "\n"))
}

// handleRebuildTags asks for confirmation before wiping and rebuilding the taxonomy
func (b *Bot) handleRebuildTags(msg *tgbotapi.Message) {
	status := b.proc.ReprocessStatus()
	if status.Phase == processor.JobRunning {
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"标签重建正在进行中...\n进度: %d/%d\n当前: %s",
			status.Processed, status.Total, currentOrPreparing(status.CurrentURL)))
		return
	}

	var total int64
	if err := b.db.Model(&models.Link{}).Count(&total).Error; err != nil {
		b.reply(msg.Chat.ID, "查询失败: "+err.Error())
		return
	}
	if total == 0 {
		b.reply(msg.Chat.ID, "没有需要处理的链接")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("确认重建", "rebuild_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("取消", "rebuild_cancel"),
		),
	)

	confirm := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"⚠️ <b>标签重建确认</b>\n\n即将执行以下操作：\n1. 清除所有现有标签和分类\n2. 重新处理所有 %d 条链接\n3. 使用AI重新生成标签\n\n这个操作可能需要较长时间，确定要继续吗？", total))
	confirm.ParseMode = tgbotapi.ModeHTML
	confirm.ReplyMarkup = keyboard
	if _, err := b.api.Send(confirm); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// handleRebuildCallback handles the confirm/cancel buttons
func (b *Bot) handleRebuildCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}

	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	switch cq.Data {
	case "rebuild_cancel":
		b.edit(chatID, messageID, "已取消标签重建")

	case "rebuild_confirm":
		if err := b.proc.ClearTaxonomy(); err != nil {
			b.edit(chatID, messageID, "标签重建失败: "+err.Error())
			return
		}

		total, err := b.proc.ReprocessAll()
		if err != nil {
			if err == processor.ErrAlreadyRunning {
				b.edit(chatID, messageID, "标签重建已在运行中，请稍候...")
				return
			}
			b.edit(chatID, messageID, "标签重建失败: "+err.Error())
			return
		}
		if total == 0 {
			b.edit(chatID, messageID, "没有需要处理的链接")
			return
		}

		b.edit(chatID, messageID, "已清除旧标签，开始重新处理链接...")
		go b.watchRebuild(chatID, messageID)
	}
}

// watchRebuild polls batch progress and edits the status message until done
func (b *Bot) watchRebuild(chatID int64, messageID int) {
	for {
		time.Sleep(5 * time.Second)

		status := b.proc.ReprocessStatus()
		switch status.Phase {
		case processor.JobRunning:
			b.edit(chatID, messageID, fmt.Sprintf(
				"标签重建进行中...\n进度: %d/%d\n当前: %s",
				status.Processed, status.Total, currentOrPreparing(status.CurrentURL)))
		case processor.JobCompleted:
			b.edit(chatID, messageID, fmt.Sprintf("标签重建完成！\n共处理 %d 条链接", status.Total))
			return
		default:
			return
		}
	}
}

// handleRebuildStatus reports batch rebuild progress
func (b *Bot) handleRebuildStatus(msg *tgbotapi.Message) {
	status := b.proc.ReprocessStatus()
	if status.Phase != processor.JobRunning {
		b.reply(msg.Chat.ID, "当前没有正在进行的标签重建任务")
		return
	}

	percent := 0
	if status.Total > 0 {
		percent = status.Processed * 100 / status.Total
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"标签重建进行中...\n进度: %d/%d (%d%%)\n当前: %s",
		status.Processed, status.Total, percent, currentOrPreparing(status.CurrentURL)))
}

func currentOrPreparing(url string) string {
	if url == "" {
		return "准备中"
	}
	return url
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		log.Printf("Failed to edit message: %v", err)
	}
}
