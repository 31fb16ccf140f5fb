package sampler

import (
	"os"
	"path/filepath"

	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/google/go-cmp/cmp"
	"github.com/rjeczalik/notify"
)

// checkConfigChanges reloads the configuration whenever the TOML file or the
// device config is written. If the result differs from conf the program
// exits and systemd restarts the service with the new settings.
func checkConfigChanges(conf Config, args Args) error {
	fsEvents := make(chan notify.EventInfo, 1)
	for _, path := range watchedFiles(args) {
		if err := notify.Watch(path, fsEvents, notify.InCloseWrite, notify.InMovedTo); err != nil {
			log.Warnf("Not watching %s: %v", path, err)
		}
	}
	defer notify.Stop(fsEvents)

	for {
		ev := <-fsEvents
		log.Debug("Config file event: ", ev)
		if configChanged(conf, args) {
			log.Info("Config changed. Exiting to allow systemctl to restart service.")
			os.Exit(0)
		}
		log.Info("No relevant changes detected in config file.")
	}
}

func watchedFiles(args Args) []string {
	return []string{
		args.ConfigFile,
		filepath.Join(args.ConfigDir, goconfig.ConfigFileName),
	}
}

func configChanged(conf Config, args Args) bool {
	newConfig, err := loadConfig(args)
	if err != nil {
		log.Error("Error reloading config: ", err)
		return false
	}
	diff := cmp.Diff(conf, newConfig)
	log.Debug("Config diff: ", diff)
	return diff != ""
}
