package service

import (
	"rtunnel/internal/config"
	"rtunnel/internal/env"
	"rtunnel/internal/models"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"
)

// scriptData 渲染脚本模板时使用的数据，配置值在生成时直接写入脚本
type scriptData struct {
	Name                 string
	Config               models.TunnelConfig
	Defaults             models.TunnelConfig
	Autossh              string
	Signature            string
	ExitOnForwardFailure string
	ConfigPath           string
	PidDir               string
}

func newScriptData(cfg models.TunnelConfig, autossh string) scriptData {
	return scriptData{
		Name:                 env.AppName,
		Config:               cfg,
		Defaults:             config.Defaults(),
		Autossh:              autossh,
		Signature:            tunnel.Signature(cfg),
		ExitOnForwardFailure: models.YesNo(cfg.ExitOnForwardFailure),
		ConfigPath:           env.SystemConfigPath,
		PidDir:               env.PidDir,
	}
}

// 与 tunnel.AutosshArgs 保持一致
const argsTemplate = `{{define "args"}}-M {{.Config.MonitorPort}} -N -o ServerAliveInterval={{.Config.ServerAliveInterval}} -o ServerAliveCountMax={{.Config.ServerAliveCountMax}} -o ExitOnForwardFailure={{.ExitOnForwardFailure}} -R {{.Config.RemotePort}}:localhost:{{.Config.LocalPort}} -p {{.Config.ServerPort}} {{.Config.ServerUser}}@{{.Config.ServerHost}}{{end}}`

const bsdRcTemplate = argsTemplate + `#!/bin/sh
#
# PROVIDE: {{.Name}}
# REQUIRE: LOGIN NETWORKING
# KEYWORD: shutdown
#
# Reverse SSH tunnel {{.Signature}} via {{.Config.ServerUser}}@{{.Config.ServerHost}}:{{.Config.ServerPort}}
# Generated by {{.Name}}; re-run "{{.Name}} -s" to change it.
#
# Add the following line to /etc/rc.conf to enable {{.Name}}:
#   {{.Name}}_enable="YES"

. /etc/rc.subr

name="{{.Name}}"
rcvar="{{.Name}}_enable"

load_rc_config $name

: ${ {{- .Name}}_enable:="NO"}
: ${ {{- .Name}}_user:="{{.Config.LocalUser}}"}
: ${ {{- .Name}}_env:="AUTOSSH_GATETIME=0"}

pidfile="/var/run/${name}.pid"
procname="{{.Autossh}}"
command="/usr/sbin/daemon"
command_args="-f -p ${pidfile} -u ${ {{- .Name}}_user} {{.Autossh}} {{template "args" .}}"

run_rc_command "$1"
`

const sysvInitTemplate = argsTemplate + `#!/bin/sh
### BEGIN INIT INFO
# Provides:          {{.Name}}
# Required-Start:    $network $remote_fs $syslog
# Required-Stop:     $network $remote_fs $syslog
# Default-Start:     2 3 4 5
# Default-Stop:      0 1 6
# Short-Description: Reverse SSH tunnel {{.Signature}}
# Description:       Reverse SSH tunnel via {{.Config.ServerUser}}@{{.Config.ServerHost}}:{{.Config.ServerPort}} kept alive by autossh
### END INIT INFO
# chkconfig: 2345 90 10
# description: Reverse SSH tunnel kept alive by autossh
#
# Generated by {{.Name}}; re-run "{{.Name}} -s" to change it.

NAME="{{.Name}}"
RUN_AS="{{.Config.LocalUser}}"
DAEMON="{{.Autossh}}"
DAEMON_ARGS="{{template "args" .}}"
PIDDIR="{{.PidDir}}"
PIDFILE="$PIDDIR/$NAME.pid"

is_running() {
    [ -f "$PIDFILE" ] && kill -0 "$(cat "$PIDFILE")" 2>/dev/null
}

start() {
    if is_running; then
        echo "$NAME is already running"
        return 0
    fi
    mkdir -p "$PIDDIR"
    chown "$RUN_AS" "$PIDDIR"
    echo "Starting $NAME"
    su -s /bin/sh "$RUN_AS" -c "AUTOSSH_GATETIME=0 AUTOSSH_PIDFILE=$PIDFILE $DAEMON -f $DAEMON_ARGS"
}

stop() {
    if ! is_running; then
        echo "$NAME is not running"
        rm -f "$PIDFILE"
        return 0
    fi
    echo "Stopping $NAME"
    kill "$(cat "$PIDFILE")"
    rm -f "$PIDFILE"
}

case "$1" in
    start)
        start
        ;;
    stop)
        stop
        ;;
    restart)
        stop
        sleep 1
        start
        ;;
    status)
        if is_running; then
            echo "$NAME is running"
        else
            echo "$NAME is stopped"
            exit 3
        fi
        ;;
    *)
        echo "Usage: $0 {start|stop|restart|status}"
        exit 1
        ;;
esac
`

const watchdogTemplate = `#!/bin/sh
#
# {{.Name}} watchdog, started from cron.
# Reads {{.ConfigPath}} on every run and starts autossh when no tunnel
# process is found.
# Generated by {{.Name}}; re-run "{{.Name}} -s" to change it.

CONFIG_FILE="{{.ConfigPath}}"
PATH="$PATH:/usr/local/bin:/usr/bin:/bin"
export PATH

if [ ! -r "$CONFIG_FILE" ]; then
    echo "{{.Name}}-watchdog: cannot read $CONFIG_FILE" >&2
    exit 1
fi
. "$CONFIG_FILE"

: "${SERVER_SSH_PORT:={{.Defaults.ServerPort}}}"
: "${LOCAL_SSH_PORT:={{.Defaults.LocalPort}}}"
: "${SERVER_SSH_FORWARD_PORT:={{.Defaults.RemotePort}}}"
: "${MONITOR_PORT:={{.Defaults.MonitorPort}}}"
: "${SERVER_ALIVE_INTERVAL:={{.Defaults.ServerAliveInterval}}}"
: "${SERVER_ALIVE_COUNT_MAX:={{.Defaults.ServerAliveCountMax}}}"
: "${EXIT_ON_FORWARD_FAILURE:=yes}"

if [ -z "$SERVER_SSH_USER" ] || [ -z "$SERVER_SSH_HOST" ]; then
    echo "{{.Name}}-watchdog: SERVER_SSH_USER and SERVER_SSH_HOST must be set in $CONFIG_FILE" >&2
    exit 1
fi

case "$EXIT_ON_FORWARD_FAILURE" in
    [Yy]|[Yy][Ee][Ss]|[Tt][Rr][Uu][Ee]|[Oo][Nn]|1) EXIT_ON_FORWARD_FAILURE=yes ;;
    *) EXIT_ON_FORWARD_FAILURE=no ;;
esac

SIGNATURE="${SERVER_SSH_FORWARD_PORT}:localhost:${LOCAL_SSH_PORT}"

if ps -e -o args= | grep -v grep | grep -E -q -e "-R *${SIGNATURE}( |$)"; then
    exit 0
fi

AUTOSSH="$(command -v autossh)"
if [ -z "$AUTOSSH" ]; then
    echo "{{.Name}}-watchdog: autossh not found in $PATH" >&2
    exit 1
fi

AUTOSSH_GATETIME=0
export AUTOSSH_GATETIME
exec "$AUTOSSH" -f -M "$MONITOR_PORT" -N \
    -o "ServerAliveInterval=$SERVER_ALIVE_INTERVAL" \
    -o "ServerAliveCountMax=$SERVER_ALIVE_COUNT_MAX" \
    -o "ExitOnForwardFailure=$EXIT_ON_FORWARD_FAILURE" \
    -R "$SIGNATURE" \
    -p "$SERVER_SSH_PORT" \
    "$SERVER_SSH_USER@$SERVER_SSH_HOST"
`

func renderBSDRc(data scriptData) (string, error) {
	return utils.RenderTemplate("rc.d", bsdRcTemplate, data)
}

func renderSysVInit(data scriptData) (string, error) {
	return utils.RenderTemplate("init.d", sysvInitTemplate, data)
}

func renderWatchdog(data scriptData) (string, error) {
	return utils.RenderTemplate("watchdog", watchdogTemplate, data)
}
