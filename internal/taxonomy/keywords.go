package taxonomy

// Keyword lists for the default Windows/macOS/Linux malware taxonomy.
// Curated from observed hunt-score performance; entries are matched as
// distinct terms, so ordering and repetition carry no weight.

var perfectDiscriminators = []string{
	"rundll32.exe", "comspec", "msiexec.exe", "wmic.exe", "iex", "findstr.exe",
	"hklm", "appdata", "programdata", "powershell.exe", "wbem",
	".lnk", `D:\`, `C:\`, ".iso", "<Command>", "MZ",
	"svchost.exe", "-accepteula", "lsass.exe", "WINDIR", "wintmp",
	`\temp\`, `\pipe\`, "%WINDIR%", "%wintmp%", "FromBase64String",
	"MemoryStream", "New-Object", "DownloadString", "Defender query",
	"sptth",
	"reg.exe", "winlogon.exe", "conhost.exe", "wscript.exe", "services.exe", "fodhelper",
	"EventCode", "parent-child", "KQL", "2>&1",
	"invoke-mimikatz", "hashdump", "invoke-shellcode", "invoke-eternalblue",
	"homebrew", "/users/shared/", "chmod 777",
	"tccd", "spctl", "csrutil",
	"xor",
	"tcp://", "CN=", "-ComObject", "Chcp", "tostring", "HKCU", "System32",
	"Hxxp", "Cmd", "8080", "User-Agent", "sshd", "Base64",
	"icacls", "InteropServices.Marshal", "selection1:", "dclist", "invoke-",
	"tasklist", "adfind", "-EncodedCommand", "selection_1:", "attrib",
	"ParentImage", "CommandLine",
	"System.IO", "StreamReader", "ByteArray", "127.0.0.1", ">1", "admin$",
	"MpPreference", "Whoami", "C$", "MSBuild", "7z",
	"auditd", "systemd", "xattr", "EndpointSecurity", "osquery",
	"zeek", "dns_query", "ja3",
	"SELECT * FROM",
}

var goodDiscriminators = []string{
	"temp", "==", `c:\windows\`, "Event ID", ".bat", ".ps1",
	"pipe", "::", "[.]", "-->", "currentversion",
	"Monitor", "Executable", "Detection", "Alert on", "Hunt for",
	"Hunting", "Create Detections", "Search Query", "//",
	"http:", "hxxp", "->", ".exe", "--",
	`\\`, "spawn", "|",
	"mimikatz", "kerberoast", "psexec",
	"mach-o", "plist",
	"osascript", "TCC.db",
	"payload", "sftp", "downloader", "jss",
	"{}", "<>", "[]",
	"win32_", "Httpd", "Int64", "/usr/", "echo", "/tmp/", "/etc/",
	"syslog", "sudo", "cron", "LD_PRELOAD", "launchd",
	"auditlog", "iam", "snort", "proxy", "http_request", "anomaly",
	"linux", "macos", "cloud", "aws", "azure", "network", "ssl",
	"codesign", "cloudtrail", "guardduty", "s3", "ec2", "gcp",
	"suricata", "netflow", "beaconing", "user-agent",
	"process_creation", "reg add", "logsource:", "get-", "selection:",
	"DeviceProcessEvents", "hxxps", "taskkill.exe", "detection:", "DeviceFileEvents",
	"child",
}

var intelligenceIndicators = []string{
	"APT", "threat actor", "attribution", "campaign", "incident",
	"breach", "compromise", "malware family", "IOC", "indicator",
	"TTP", "technique", "observed", "discovered", "detected in wild",
	"real-world", "in the wild", "in-the-wild", "active campaign", "ongoing threat",
	"victim", "targeted", "exploited", "compromised", "infiltrated",
	"intrusion", "beacon", "lateral movement", "persistence", "reconnaissance",
	"exfiltration", "command and control", "c2", "initial access", "privilege escalation",
	"FIN", "TA", "UNC", "APT1", "APT28", "APT29", "Lazarus", "Carbanak",
	"Cozy Bear", "Fancy Bear", "Wizard Spider", "Ryuk", "Maze",
	"ransomware", "data breach", "cyber attack", "espionage",
	"sophisticated attack", "advanced persistent threat",
	"golden-ticket", "silver-ticket",
}

var negativeIndicators = []string{
	"what is", "how to", "guide to", "tutorial", "best practices",
	"statistics", "survey", "report shows", "study reveals",
	"learn more", "read more", "click here", "download now",
	"free trial", "contact us", "get started", "sign up",
	"blog post", "newsletter", "webinar", "training",
	"overview", "introduction", "basics", "fundamentals",
}

// lolbasExecutables deliberately repeats the process names that also
// sit among the perfect discriminators: a binary that is both highly
// indicative and living-off-the-land counts in each category.
var lolbasExecutables = []string{
	"certutil.exe", "cmd.exe", "schtasks.exe", "wmic.exe", "bitsadmin.exe",
	"ftp.exe", "netsh.exe", "cscript.exe", "mshta.exe", "regsvr32.exe",
	"rundll32.exe", "forfiles.exe", "explorer.exe", "ieexec.exe",
	"powershell.exe", "conhost.exe", "svchost.exe", "lsass.exe", "csrss.exe",
	"smss.exe", "wininit.exe", "nltest.exe", "odbcconf.exe", "scrobj.dll",
	"addinutil.exe", "appinstaller.exe", "aspnet_compiler.exe", "atbroker.exe",
	"bash.exe", "certoc.exe", "certreq.exe", "cipher.exe", "cmdkey.exe",
	"cmdl32.exe", "cmstp.exe", "colorcpl.exe", "computerdefaults.exe",
	"configsecuritypolicy.exe", "control.exe", "csc.exe", "customshellhost.exe",
	"datasvcutil.exe", "desktopimgdownldr.exe",
	"devicecredentialdeployment.exe", "dfsvc.exe", "diantz.exe",
	"diskshadow.exe", "dnscmd.exe", "esentutl.exe", "eventvwr.exe",
	"expand.exe", "extexport.exe", "extrac32.exe", "findstr.exe", "finger.exe",
	"fltmc.exe", "gpscript.exe", "replace.exe", "sc.exe", "print.exe",
	"ssh.exe", "teams.exe", "rdrleakdiag.exe", "ipconfig.exe", "systeminfo.exe",
	"aspnet_com.exe", "acroreer.exe", "change.exe", "configse.exe",
	"customshell.exe", "datasecutil.exe", "desktopimg.exe", "devicescred.exe",
	"dism.exe", "eudcedit.exe", "export.exe", "flmc.exe", "fsutil.exe",
	"gscript.exe", "hh.exe", "imewdbld.exe", "ie4uinit.exe", "inetcpl.exe",
	"installutil.exe", "iscsicpl.exe", "isc.exe", "ldifde.exe", "makecab.exe",
	"mavinject.exe", "microsoft.workflow.exe", "mmc.exe", "mpcmdrun.exe",
	"msbuild.exe", "msconfig.exe", "msdt.exe", "msedge.exe", "ngen.exe",
	"offlinescanner.exe", "onedrivesta.exe", "pcalua.exe", "pcwrun.exe",
	"platman.exe", "pnputil.exe", "presentationsettings.exe", "printbrm.exe",
	"prowlaunch.exe", "psr.exe", "query.exe", "rasautou.exe", "reg.exe",
	"regasm.exe", "regedit.exe", "regini.exe", "register-cim.exe", "reset.exe",
	"rpcping.exe", "runschlp.exe", "runonce.exe", "runscripthelper.exe",
	"scriptrunner.exe", "setres.exe", "settingsynchost.exe", "sftp.exe",
	"syncappvpublishingserver.exe", "tar.exe", "tldinject.exe", "tracerpt.exe",
	"unregmp2.exe", "wbc.exe", "vssadmin.exe", "wab.exe", "wbadmin.exe",
	"wbemtest.exe", "wfgen.exe", "wfp.exe", "winword.exe", "wsreset.exe",
	"wuzucht.exe", "xwizard.exe", "msedge_proxy.exe", "msedgewebview2.exe",
	"wsl.exe", "adxpack.dll", "desk.cpl", "ieframe.dll", "mshtml.dll",
	"pcwutil.dll", "photoviewer.dll", "setupapi.dll", "shdocvw.dll",
	"shell32.dll", "shimgvw.dll", "syssetup.dll", "url.dll", "zipfldr.dll",
	"comsvcs.dll", "acccheckco.dll", "adplus.exe", "agentexecu.exe",
	"applauncher.exe", "appcert.exe", "appvlp.exe", "bginfo.exe", "cdb.exe",
	"coregen.exe", "createdump.exe", "csi.exe", "defaultpack.exe",
	"devinit.exe", "devtroubleshoot.exe", "dnx.exe", "dotnet.exe",
	"dpubuild.exe", "dputil.exe", "dump64.exe", "dumpmini.exe", "dxcap.exe",
	"ecmangen.exe", "excel.exe", "foj.exe", "fsrmgpu.exe", "hltrace.exe",
	"microsoft.notes.exe", "mpiexec.exe", "msaccess.exe", "msdeploy.exe",
	"msohtmed.exe", "mspub.exe", "mses.exe", "ndsutil.exe", "ntds.exe",
	"openconsole.exe", "pstools.exe", "powerpnt.exe", "procdump.exe",
	"protocolhandler.exe", "rcsi.exe", "remote.exe", "sqldumper.exe",
	"sqlps.exe", "sqltoolsps.exe", "squirrel.exe", "ta.exe", "testwindow.exe",
	"tracker.exe", "update.exe", "vsdiagnostic.exe", "vsixinstaller.exe",
	"visio.exe", "visualuiaver.exe", "vsixlaunch.exe", "vsshadow.exe",
	"wsgldebugger.exe", "wfhformat.exe", "wic.exe", "windbg.exe", "winproj.exe",
	"xbootmgr.exe", "xtoolmgr.exe", "rdptunnel.exe", "wslg-agent.exe",
	"wstest_console.exe", "winfile.exe", "xsd.exe", "cl_loadas.exe",
	"cl_mute.exe", "cl_invoca.exe", "launch-vsd.exe", "manage-bde.exe",
	"pubprn.vbs", "syncappvpu.exe", "utilityfunc.exe", "winrm.vbs",
	"poster.bat",
}

// obfuscationPatterns detect command-interpreter obfuscation (env-var
// splicing, delayed expansion, caret insertion, FOR-loop reassembly,
// stdin piping). They fold into the perfect-discriminator category as
// additional distinct matches.
var obfuscationPatterns = []string{
	`%[A-Za-z0-9_]+:~[0-9]+(,[0-9]+)?%`,                      // env-var substring access
	`%[A-Za-z0-9_]+:[^=%]+=[^%]*%`,                           // env-var string substitution
	`![A-Za-z0-9_]+!`,                                        // delayed expansion markers
	`\bcmd(\.exe)?\s*/V(?::[^ \t/]+)?`,                       // /V:ON obfuscated variants
	`\bset\s+[A-Za-z0-9_]+\s*=`,                              // multiple SET stages
	`\bcall\s+(set|%[A-Za-z0-9_]+%|![A-Za-z0-9_]+!)`,         // CALL invocation
	`(%[^%]+%){4,}`,                                          // adjacent env-var concatenation
	`\bfor\s+/?[A-Za-z]*\s+%[A-Za-z]\s+in\s*\(`,              // FOR loops
	`![A-Za-z0-9_]+:~%[A-Za-z],1!`,                           // FOR-indexed substring extraction
	`\bfor\s+/L\s+%[A-Za-z]\s+in\s*\([^)]+\)`,                // reversal via /L
	`%[A-Za-z0-9_]+:~-[0-9]+%|%[A-Za-z0-9_]+:~[0-9]+%`,       // tail trimming
	`%[A-Za-z0-9_]+:\*[^!%]+=!%`,                             // asterisk-based substitution
	`[^\w](s\^+e\^*t|s\^*e\^+t)[^\w]`,                        // caret-obfuscated set
	`[^\w](c\^+a\^*l\^*l|c\^*a\^+l\^*l|c\^*a\^*l\^+l)[^\w]`,  // caret-obfuscated call
	`[^\w]([a-z]\^+[a-z](\^+[a-z])*)[^\w]`,                   // caret-obfuscated commands
	`%[^%]+%<[^>]*|set\s+[A-Za-z0-9_]+\s*=\s*[^&|>]*\|`,      // stdin piping patterns
}

// partialMatchTerms match anywhere, even inside longer words
// ("hunting" inside "threat-hunting").
var partialMatchTerms = map[string]bool{
	"hunting":        true,
	"detection":      true,
	"monitor":        true,
	"alert":          true,
	"executable":     true,
	"parent-child":   true,
	"defender query": true,
}

// prefixWildcardTerms match the term plus any word-character suffix
// ("spawn" matches "spawns", "spawned").
var prefixWildcardTerms = map[string]bool{
	"spawn": true,
}

// symbolTerms are operator-like entries where word boundaries make no
// sense; they match as literal substrings.
var symbolTerms = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true, "::": true,
	"-->": true, "->": true, "//": true, "--": true,
	`\`: true, "|": true, `C:\`: true, `D:\`: true,
}
