package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github-project-compare/internal/app"
	"github-project-compare/internal/config"
	"github-project-compare/internal/domain"

	"github.com/sirupsen/logrus"
)

// 调试模式：不启动 HTTP，直接对比一次并打印结果
func main() {
	user := flag.String("user", "", "GitHub 用户名")
	p1 := flag.String("p1", "", "项目一")
	p2 := flag.String("p2", "", "项目二")
	timeout := flag.Duration("timeout", 2*time.Minute, "整次对比的超时时间")
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		logrus.Fatalf("❌ 配置加载失败: %v", err)
	}
	app.SetupLogging(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc, cleanup, err := app.Build(ctx, cfg)
	if err != nil {
		logrus.Fatalf("❌ 服务初始化失败: %v", err)
	}
	defer cleanup()

	logrus.Infof("🔍 调试模式：对比 %s/%s 与 %s/%s", *user, *p1, *user, *p2)
	result, err := svc.Compare(ctx, domain.CompareRequest{
		GitHubUsername: *user,
		Project1:       *p1,
		Project2:       *p2,
	})
	if err != nil {
		logrus.Errorf("❌ 对比失败: %v", err)
		return
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logrus.Errorf("❌ 序列化结果失败: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(out))
	logrus.Infof("🏆 胜出: %s (%d 分)", result.Winner.Name, result.Winner.Score)
}
