package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/limestar/limestar/pkg/limestar/ai"
	"github.com/limestar/limestar/pkg/limestar/config"
	"github.com/limestar/limestar/pkg/limestar/database"
	"github.com/limestar/limestar/pkg/limestar/models"
	"github.com/limestar/limestar/pkg/limestar/processor"
	"github.com/limestar/limestar/pkg/limestar/scraper"
)

var rootCmd = &cobra.Command{
	Use:   "limestar",
	Short: "LimeStar link collection CLI",
	Long:  `Add, list, and search AI-tagged bookmarks from the command line.`,
}

var (
	addNote   string
	listLimit int
)

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Add and process a link",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent links",
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search links by keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags with link counts",
	RunE:  runTags,
}

func init() {
	addCmd.Flags().StringVar(&addNote, "note", "", "optional note to attach to the link")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of links to show")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(tagsCmd)
}

// setup opens the database and wires the processing pipeline
func setup() (*gorm.DB, *processor.Processor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := database.Connect(cfg.DatabasePath); err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	db := database.GetDB()
	if err := models.AutoMigrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	aiClient := ai.NewClient(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModelName,
	})
	return db, processor.New(db, scraper.New(), aiClient), nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	_, proc, err := setup()
	if err != nil {
		return err
	}

	url := args[0]
	cmd.Printf("正在处理: %s\n", url)
	if addNote != "" {
		cmd.Printf("备注: %s\n", addNote)
	}

	link, err := proc.AddAndProcess(context.Background(), url, addNote, "cli")
	if err != nil {
		return fmt.Errorf("处理失败: %w", err)
	}

	cmd.Println("\n✓ 处理完成!")
	printLink(cmd, link)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	db, _, err := setup()
	if err != nil {
		return err
	}

	var links []models.Link
	if err := db.Preload("Tags").Order("created_at DESC").Limit(listLimit).Find(&links).Error; err != nil {
		return err
	}

	if len(links) == 0 {
		cmd.Println("暂无收藏的链接")
		return nil
	}

	cmd.Printf("最近 %d 条链接:\n", len(links))
	for i := range links {
		printLink(cmd, &links[i])
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	db, _, err := setup()
	if err != nil {
		return err
	}

	term := "%" + args[0] + "%"
	var links []models.Link
	if err := db.Preload("Tags").
		Where("title LIKE ? OR description LIKE ? OR user_note LIKE ?", term, term, term).
		Order("created_at DESC").Find(&links).Error; err != nil {
		return err
	}

	if len(links) == 0 {
		cmd.Printf("未找到包含 %q 的链接\n", args[0])
		return nil
	}

	cmd.Printf("找到 %d 条匹配的链接:\n", len(links))
	for i := range links {
		printLink(cmd, &links[i])
	}
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	db, _, err := setup()
	if err != nil {
		return err
	}

	var tags []models.Tag
	if err := db.Order("is_category DESC, sort_order, name").Find(&tags).Error; err != nil {
		return err
	}

	if len(tags) == 0 {
		cmd.Println("暂无标签")
		return nil
	}

	cmd.Printf("共 %d 个标签:\n", len(tags))
	for _, tag := range tags {
		var count int64
		db.Table("link_tags").Where("tag_id = ?", tag.ID).Count(&count)
		marker := "•"
		if tag.IsCategory {
			marker = "◆"
		}
		cmd.Printf("  %s %s (%d)\n", marker, tag.Name, count)
	}
	return nil
}

func printLink(cmd *cobra.Command, link *models.Link) {
	status := "..."
	if link.IsProcessed {
		status = "✓"
	}
	tagsStr := "无标签"
	if len(link.Tags) > 0 {
		names := make([]string, len(link.Tags))
		for i, t := range link.Tags {
			names[i] = t.Name
		}
		tagsStr = strings.Join(names, ", ")
	}

	desc := link.Description
	if len([]rune(desc)) > 100 {
		desc = string([]rune(desc)[:100]) + "..."
	}

	cmd.Printf("\n[%s] %s\n", status, link.Title)
	cmd.Printf("    URL: %s\n", link.URL)
	cmd.Printf("    描述: %s\n", desc)
	cmd.Printf("    标签: %s\n", tagsStr)
	cmd.Printf("    时间: %s\n", link.CreatedAt.Format("2006-01-02 15:04"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
