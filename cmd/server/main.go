package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cyber-intake/internal/api"
	"cyber-intake/internal/engine"
	"cyber-intake/internal/jira"
)

func main() {
	godotenv.Load()

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	policyDir := filepath.Join(baseDir, "policy")
	if override := strings.TrimSpace(os.Getenv("POLICY_DIR")); override != "" {
		policyDir = override
	}

	risk := engine.DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("UNKNOWN_WEIGHT_FACTOR")); v != "" {
		if factor, err := strconv.ParseFloat(v, 64); err == nil && factor >= 0 && factor <= 1 {
			risk.UnknownWeightFactor = factor
		} else {
			logrus.Warnf("ignoring UNKNOWN_WEIGHT_FACTOR=%q, expected a value in [0,1]", v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("UNKNOWN_IN_RATIONALE")); v != "" {
		risk.UnknownAlwaysInRationale = !strings.EqualFold(v, "false")
	}

	jiraCfg := jira.Config{
		BaseURL:          os.Getenv("JIRA_BASE"),
		Username:         os.Getenv("JIRA_USERNAME"),
		APIToken:         os.Getenv("JIRA_API_TOKEN"),
		RiskLevelField:   os.Getenv("JIRA_RISK_LEVEL_FIELD"),
		CriterionLabel:   os.Getenv("JIRA_CRITERION_LABEL"),
		SquadSource:      os.Getenv("JIRA_SQUAD_SOURCE"),
		SquadLabelPrefix: os.Getenv("JIRA_SQUAD_LABEL_PREFIX"),
	}
	if timeout := os.Getenv("JIRA_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			jiraCfg.Timeout = d
		}
	}

	var allowedOrigins []string
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	server, err := api.NewServer(api.Config{
		PolicyDir:      policyDir,
		AllowedOrigins: allowedOrigins,
		Risk:           &risk,
		Jira:           jiraCfg,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.Infof("starting cyber-intake backend on :%s", port)
	if err := server.Router().Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
